package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	rperrors "github.com/relicta-tech/grm/internal/errors"
	"github.com/relicta-tech/grm/internal/infrastructure/persistence"
)

var validateWatch bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the changelog format",
	Long: `Check that the changelog has an Unreleased section and that every other
second-level header reads "## X.Y.Z - YYYY-MM-DD".

With --watch the changelog is checked again every time it is written.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "re-validate whenever the changelog changes")
}

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root, store := changelogStore(cfg)

	if !validateWatch {
		return validateChangelog(ctx, store)
	}

	path, err := filepath.Abs(filepath.Join(root, store.Path()))
	if err != nil {
		return rperrors.IOWrap(err, "cli.validate", "cannot resolve changelog path")
	}

	check := func() {
		if err := validateChangelog(ctx, store); err != nil {
			printError(ErrorMessage(err))
		}
	}
	check()
	printSubtle(fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)...", store.Path()))
	return watchFile(ctx, path, check)
}

// validateChangelog prints the result of validating the store. Issues are
// returned as a validation error.
func validateChangelog(ctx context.Context, store *persistence.ChangelogStore) error {
	report := store.Validate(ctx)
	if report.Valid() {
		printSuccess(fmt.Sprintf("%s is valid", store.Name()))
		if pending, err := store.HasUnreleased(ctx); err == nil && !pending {
			printSubtle("No unreleased entries yet")
		}
		return nil
	}
	msg := fmt.Sprintf("%s format issues:\n%s", store.Name(), report.String())
	return rperrors.Validation("cli.validate", msg).WithDetail("issues", report.Issues())
}

// watchFile calls onChange after every write, creation, removal or rename
// of path until ctx is done. The parent directory is watched so editors
// that replace the file are followed.
func watchFile(ctx context.Context, path string, onChange func()) error {
	const op = "cli.watchFile"

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return rperrors.IOWrap(err, op, "failed to create watcher")
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return rperrors.IOWrap(err, op, "failed to watch "+filepath.Dir(path))
	}

	var lastCheck time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastCheck) < watchDebounce {
				continue
			}
			lastCheck = time.Now()
			logger.Debug("changelog changed", "op", event.Op.String())
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case <-ctx.Done():
			return nil
		}
	}
}
