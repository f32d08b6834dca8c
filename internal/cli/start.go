package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/grm/internal/application/release"
	"github.com/relicta-tech/grm/internal/domain/version"
)

var (
	startMinor bool
	startPatch bool
	startMajor bool
	startDate  string
)

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"r", "release"},
	Short:   "Create a new release branch",
	Long: `Create the release branch for the next version.

The working tree must be clean and you must be on the release source
branch (develop when it exists, main/master otherwise). The Unreleased
changelog entries move under a new "## X.Y.Z - YYYY-MM-DD" header, which is
committed on release/X.Y.Z and pushed when a remote is configured.

Without a bump flag you are asked to choose one.

Examples:
  grm start --minor
  grm r -p --date 2024-03-01
  grm start -M --yes`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&startMinor, "minor", "m", false, "create a minor version bump (X.Y+1.0)")
	startCmd.Flags().BoolVarP(&startPatch, "patch", "p", false, "create a patch version bump (X.Y.Z+1)")
	startCmd.Flags().BoolVarP(&startMajor, "major", "M", false, "create a major version bump (X+1.0.0)")
	startCmd.Flags().StringVar(&startDate, "date", "", "release date for the changelog header (YYYY-MM-DD, default: today)")
	startCmd.MarkFlagsMutuallyExclusive("minor", "patch", "major")
}

// bumpFromFlags returns the bump selected on the command line, if any.
func bumpFromFlags() version.BumpType {
	switch {
	case startMajor:
		return version.BumpMajor
	case startMinor:
		return version.BumpMinor
	case startPatch:
		return version.BumpPatch
	}
	return ""
}

// startInput builds the workflow input from flags. --yes takes the default
// answer of every question and leaves the bump to the configured default.
func startInput(p *prompter) release.StartInput {
	input := release.StartInput{
		Bump: bumpFromFlags(),
		Date: startDate,
	}
	if !assumeYes {
		input.Confirm = p.confirm
		input.ChooseBump = p.bumpChooser(cfg.Release.Bump())
	}
	return input
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := a.service.Start(ctx, startInput(newPrompter()))
	if err != nil {
		if errors.Is(err, release.ErrCanceled) {
			printInfo("Release creation cancelled.")
			return nil
		}
		return err
	}

	fmt.Fprintln(out)
	if res.CreatedChangelog {
		printInfo(fmt.Sprintf("Created %s with initial structure", a.store.Path()))
	}
	if res.Pushed {
		printSuccess(fmt.Sprintf("Pushed %s to %s", res.Branch, cfg.Remote.Name))
	}
	printSuccess(fmt.Sprintf("Release branch '%s' created successfully!", res.Branch))
	if res.PreviousVersion != "" {
		printSubtle(fmt.Sprintf("%s → %s (%s)", res.PreviousVersion, res.Version, res.Bump))
	}
	printInfo("Next steps:")
	printInfo(fmt.Sprintf("  1. Review the changes in %s", a.store.Path()))
	printInfo("  2. When ready, run: grm finish")

	logger.Debug("release started", "run_id", res.RunID, "version", res.Version, "warnings", len(res.Warnings))
	return nil
}
