package release

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/relicta-tech/grm/internal/domain/changelog"
	"github.com/relicta-tech/grm/internal/domain/version"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

// StartInput configures a release start.
type StartInput struct {
	// Bump selects the version bump. Empty asks ChooseBump, then falls back
	// to the configured default.
	Bump version.BumpType
	// Date dates the new changelog section (YYYY-MM-DD). Empty uses today.
	Date string
	// Confirm answers the workflow's questions. Nil takes each default.
	Confirm ConfirmFunc
	// ChooseBump picks a bump interactively when Bump is empty.
	ChooseBump ChooseBumpFunc
}

// StartResult describes a started release.
type StartResult struct {
	RunID           string
	Version         string
	PreviousVersion string
	Bump            version.BumpType
	Branch          string
	SourceBranch    string
	// CreatedChangelog is set when the changelog template was written.
	CreatedChangelog bool
	Committed        bool
	Pushed           bool
	Warnings         []string
}

// Start creates the release branch for the next version, moves the
// Unreleased changelog entries under a dated version header and commits the
// changelog on the new branch.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	const op = "release.Start"

	if in.Date != "" {
		if err := changelog.ValidateDate(in.Date); err != nil {
			return nil, rperrors.ChangelogWrap(err, op, "invalid release date")
		}
	}
	if in.Bump != "" && !in.Bump.IsValid() {
		return nil, rperrors.VersionWrap(fmt.Errorf("%w: %s", version.ErrInvalidBumpKind, in.Bump), op, "invalid bump type")
	}

	res := &StartResult{RunID: s.newID()}
	logger := s.logger.With("run_id", res.RunID)

	if err := s.checkClean(ctx, op); err != nil {
		return nil, err
	}

	source, err := s.ensureSourceBranch(ctx, in.Confirm, res)
	if err != nil {
		return nil, err
	}
	res.SourceBranch = source

	if err := s.ensureChangelog(ctx, in.Confirm, res); err != nil {
		return nil, err
	}

	if report := s.store.Validate(ctx); !report.Valid() {
		msg := fmt.Sprintf("%s format issues:\n  • %s", s.store.Name(), strings.Join(report.Issues(), "\n  • "))
		return nil, rperrors.Validation(op, msg).WithDetail("issues", report.Issues())
	}

	notes, err := s.store.Unreleased(ctx)
	if err != nil {
		return nil, rperrors.ChangelogWrap(err, op, "cannot read unreleased changes")
	}
	if len(notes) == 0 {
		s.warnf(&res.Warnings, "No unreleased content found in %s", s.store.Name())
		ok, err := confirm(ctx, in.Confirm, "Continue anyway?", false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoUnreleasedContent
		}
	}

	tags, err := s.provider.Tags(ctx)
	if err != nil {
		return nil, rperrors.GitWrap(err, op, "cannot list tags")
	}
	catalog := version.NewCatalog(tags)
	if latest, ok := catalog.Latest(); ok {
		res.PreviousVersion = latest.String()
	}

	if s.cfg.Release.CheckVersionMismatch {
		if err := s.checkVersionMismatch(ctx, catalog); err != nil {
			return nil, err
		}
	}

	bump, err := s.chooseBump(ctx, in, catalog, notes)
	if err != nil {
		return nil, err
	}
	next, err := catalog.Suggest(bump)
	if err != nil {
		return nil, rperrors.VersionWrap(err, op, "cannot compute next version")
	}
	res.Bump = bump
	res.Version = next.String()
	res.Branch = s.layout.ReleaseBranch(res.Version)

	ok, err := confirm(ctx, in.Confirm, fmt.Sprintf("Create release %s?", res.Version), true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCanceled
	}

	logger.Info("creating release branch", "branch", res.Branch, "from", source)
	if err := s.provider.CreateBranch(ctx, res.Branch, true); err != nil {
		return nil, rperrors.GitWrap(err, op, "cannot create release branch "+res.Branch)
	}

	logger.Info("updating changelog", "file", s.store.Path(), "version", res.Version)
	before, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	moveOpts := []changelog.MoveOption{changelog.WithClock(s.clock)}
	if in.Date != "" {
		moveOpts = append(moveOpts, changelog.WithDate(in.Date))
	}
	after, err := s.store.MoveUnreleased(ctx, res.Version, moveOpts...)
	if err != nil {
		return nil, err
	}

	if after == before && !res.CreatedChangelog {
		s.warnf(&res.Warnings, "%s unchanged, nothing to commit", s.store.Name())
	} else {
		logger.Info("committing changelog", "message", s.cfg.Changelog.CommitMessage)
		if err := s.provider.Commit(ctx, s.cfg.Changelog.CommitMessage, s.store.Path()); err != nil {
			return nil, rperrors.GitWrap(err, op, "cannot commit changelog")
		}
		res.Committed = true
	}

	s.pushReleaseBranch(ctx, res)
	return res, nil
}

func (s *Service) checkClean(ctx context.Context, op string) error {
	clean, err := s.provider.IsClean(ctx)
	if err != nil {
		return rperrors.GitWrap(err, op, "cannot inspect working tree")
	}
	if !clean {
		return ErrDirtyWorkingTree
	}
	return nil
}

// ensureSourceBranch makes sure HEAD is on the release source branch,
// offering to switch to develop when that is where releases start.
func (s *Service) ensureSourceBranch(ctx context.Context, ask ConfirmFunc, res *StartResult) (string, error) {
	const op = "release.ensureSourceBranch"

	source, err := s.layout.ReleaseSourceBranch(ctx, s.provider)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "cannot determine release source branch")
	}
	current, err := s.provider.CurrentBranch(ctx)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "cannot determine current branch")
	}
	if current == source {
		return source, nil
	}

	if source != s.layout.Develop {
		return "", fmt.Errorf("%w: must be on '%s' branch to create a release, currently on '%s'", ErrWrongBranch, source, current)
	}

	s.warnf(&res.Warnings, "Currently on '%s' branch, but releases must be created from '%s'.", current, source)
	ok, err := confirm(ctx, ask, fmt.Sprintf("Switch to '%s' branch and continue?", source), true)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCanceled
	}

	s.logger.Info("switching branch", "branch", source)
	if err := s.provider.Checkout(ctx, source); err != nil {
		return "", rperrors.GitWrap(err, op, "cannot switch to "+source)
	}

	hasRemote, err := s.provider.HasRemote(ctx)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "cannot list remotes")
	}
	if hasRemote {
		err := s.remote("Pulling latest changes from "+source, func() error {
			return s.provider.Pull(ctx, s.remoteName(), source)
		})
		if err != nil {
			s.warnf(&res.Warnings, "Failed to pull latest changes: %v", err)
			s.warnf(&res.Warnings, "Continuing with local version")
		}
	}
	return source, nil
}

func (s *Service) ensureChangelog(ctx context.Context, ask ConfirmFunc, res *StartResult) error {
	const op = "release.ensureChangelog"

	exists, err := s.store.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if !s.cfg.Changelog.CreateIfMissing {
		return fmt.Errorf("%w: %s not found", ErrChangelogMissing, s.store.Path())
	}

	ok, err := confirm(ctx, ask, fmt.Sprintf("%s not found. Create it?", s.store.Name()), true)
	if err != nil {
		return err
	}
	if !ok {
		return ErrChangelogMissing
	}
	if err := s.store.CreateInitial(ctx); err != nil {
		return rperrors.IOWrap(err, op, "cannot create changelog")
	}
	res.CreatedChangelog = true
	s.logger.Info("created changelog", "file", s.store.Path())
	return nil
}

// checkVersionMismatch compares the newest changelog section with the newest
// tag. Either being absent is not a mismatch.
func (s *Service) checkVersionMismatch(ctx context.Context, catalog *version.Catalog) error {
	text, err := s.store.Read(ctx)
	if err != nil {
		return err
	}
	section, hasSection := changelog.LatestVersionSection(text)
	latest, hasTag := catalog.Latest()
	if !hasSection || !hasTag {
		return nil
	}
	if section.Version != latest.String() {
		return fmt.Errorf("%w: %s has %s, but latest git tag is %s",
			ErrVersionMismatch, s.store.Name(), section.Version, latest)
	}
	return nil
}

func (s *Service) chooseBump(ctx context.Context, in StartInput, catalog *version.Catalog, notes []string) (version.BumpType, error) {
	if in.Bump != "" {
		return in.Bump, nil
	}
	if in.ChooseBump == nil {
		return s.cfg.Release.Bump(), nil
	}

	bump, err := in.ChooseBump(ctx, catalog, notes)
	if err != nil {
		return "", err
	}
	if !bump.IsValid() {
		return "", rperrors.VersionWrap(fmt.Errorf("%w: %s", version.ErrInvalidBumpKind, bump), "release.chooseBump", "invalid bump type")
	}
	return bump, nil
}

// pushReleaseBranch publishes the new branch. Failures become warnings.
func (s *Service) pushReleaseBranch(ctx context.Context, res *StartResult) {
	hasRemote, err := s.provider.HasRemote(ctx)
	if err != nil {
		s.warnf(&res.Warnings, "Cannot list remotes: %v", err)
		return
	}
	if !s.publishes(hasRemote) {
		return
	}

	err = s.remote("Pushing "+res.Branch, func() error {
		return s.provider.Push(ctx, s.remoteName(), res.Branch, true)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.warnf(&res.Warnings, "Push canceled")
		} else {
			s.warnf(&res.Warnings, "Failed to push release branch: %v", err)
		}
		s.warnf(&res.Warnings, "You may need to push manually")
		return
	}
	res.Pushed = true
}
