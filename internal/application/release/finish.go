package release

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/felixgeelhaar/statekit"

	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
	"github.com/relicta-tech/grm/internal/domain/version"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

// FinishInput configures a release finish.
type FinishInput struct {
	// Confirm answers the workflow's questions. Nil takes each default.
	Confirm ConfirmFunc
}

// FinishResult describes a finished release. On failure it records the
// steps completed before the error.
type FinishResult struct {
	RunID       string
	Version     string
	Branch      string
	Integration string
	// Develop is empty when there is no develop branch.
	Develop string
	// FinalBranch is the branch left checked out.
	FinalBranch string
	// State is the last state of the finish machine.
	State    statekit.StateID
	Steps    []string
	Warnings []string
}

// finishRun is the mutable state of one finish.
type finishRun struct {
	res         *FinishResult
	confirm     ConfirmFunc
	logger      *log.Logger
	branch      string
	version     string
	integration string
	hasDevelop  bool
	hasRemote   bool

	merged        bool
	tagged        bool
	branchDeleted bool
}

func (r *finishRun) step(format string, args ...any) {
	r.res.Steps = append(r.res.Steps, fmt.Sprintf(format, args...))
}

type finishStep func(ctx context.Context, run *finishRun) (statekit.EventType, error)

// Finish merges the current release branch into the integration branch,
// tags it, merges back into develop, deletes the release branch, publishes
// everything and switches to develop (or the integration branch).
func (s *Service) Finish(ctx context.Context, in FinishInput) (*FinishResult, error) {
	const op = "release.Finish"

	run := &finishRun{
		res:     &FinishResult{RunID: s.newID()},
		confirm: in.Confirm,
	}
	run.logger = s.logger.With("run_id", run.res.RunID)

	machine, err := newFinishMachine(run)
	if err != nil {
		return nil, rperrors.Wrap(err, rperrors.KindInternal, op, "cannot build finish workflow")
	}

	steps := map[statekit.StateID]finishStep{
		StateValidating:  s.finishValidate,
		StateIntegrating: s.finishIntegrate,
		StateTagging:     s.finishTag,
		StateBackmerging: s.finishBackmerge,
		StateCleaning:    s.finishClean,
		StatePublishing:  s.finishPublish,
		StateSwitching:   s.finishSwitch,
	}

	machine.Start()
	for !machine.IsDone() {
		state := machine.State()
		step, ok := steps[state]
		if !ok {
			return run.res, rperrors.State(op, fmt.Sprintf("no step for state %q", state))
		}

		run.logger.Debug("finish step", "state", state)
		event, err := step(ctx, run)
		if err != nil {
			if errors.Is(err, ErrCanceled) {
				machine.Send(EventCancel)
			} else {
				machine.Send(EventFail)
			}
			run.res.State = machine.State()
			return run.res, err
		}
		if !machine.Send(event) {
			run.res.State = state
			return run.res, rperrors.State(op, fmt.Sprintf("transition %s rejected in state %s", event, state))
		}
	}

	run.res.State = machine.State()
	run.logger.Info("release finished", "version", run.version)
	return run.res, nil
}

func (s *Service) finishValidate(ctx context.Context, run *finishRun) (statekit.EventType, error) {
	const op = "release.finishValidate"

	if err := s.checkClean(ctx, op); err != nil {
		return "", err
	}

	current, err := s.provider.CurrentBranch(ctx)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "cannot determine current branch")
	}
	v, err := s.layout.ReleaseVersion(current)
	if err != nil {
		return "", fmt.Errorf("%w: must be on a release branch to finish, currently on '%s'", sourcecontrol.ErrNotReleaseBranch, current)
	}
	if _, err := semver.StrictNewVersion(v); err != nil {
		return "", rperrors.VersionWrap(err, op, fmt.Sprintf("release branch '%s' does not name a version", current))
	}
	if err := s.checkNotTagged(ctx, v); err != nil {
		return "", err
	}

	integration, err := s.layout.IntegrationBranch(ctx, s.provider)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "cannot determine integration branch")
	}
	hasDevelop, err := s.layout.HasDevelop(ctx, s.provider)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "cannot look up develop branch")
	}
	hasRemote, err := s.provider.HasRemote(ctx)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "cannot list remotes")
	}

	run.branch = current
	run.version = v
	run.integration = integration
	run.hasDevelop = hasDevelop
	run.hasRemote = hasRemote
	run.res.Version = v
	run.res.Branch = current
	run.res.Integration = integration
	if hasDevelop {
		run.res.Develop = s.layout.Develop
	}

	run.logger.Info("finishing release", "version", v, "integration", integration)
	ok, err := confirm(ctx, run.confirm, fmt.Sprintf("Finish release %s?", v), true)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCanceled
	}
	return EventValidated, nil
}

// checkNotTagged fails when a tag already names version v, in any of the
// accepted tag spellings.
func (s *Service) checkNotTagged(ctx context.Context, v string) error {
	const op = "release.checkNotTagged"

	parsed, err := version.Parse(v)
	if err != nil {
		return rperrors.VersionWrap(err, op, "invalid release version")
	}
	tags, err := s.provider.Tags(ctx)
	if err != nil {
		return rperrors.GitWrap(err, op, "cannot list tags")
	}
	if version.NewCatalog(tags).Contains(parsed) {
		return fmt.Errorf("%w: %s is already tagged", ErrVersionExists, v)
	}
	return nil
}

// pullBeforeMerge updates branch from the remote. A failed pull asks whether
// to merge anyway.
func (s *Service) pullBeforeMerge(ctx context.Context, run *finishRun, branch string) error {
	if !run.hasRemote {
		return nil
	}

	err := s.remote("Pulling latest changes from "+branch, func() error {
		return s.provider.Pull(ctx, s.remoteName(), branch)
	})
	if err == nil {
		run.step("Pulled latest changes from %s", branch)
		return nil
	}

	s.warnf(&run.res.Warnings, "Failed to pull latest changes from %s: %v", branch, err)
	ok, cerr := confirm(ctx, run.confirm, "Continue with merge anyway?", false)
	if cerr != nil {
		return cerr
	}
	if !ok {
		return ErrCanceled
	}
	return nil
}

func (s *Service) finishIntegrate(ctx context.Context, run *finishRun) (statekit.EventType, error) {
	const op = "release.finishIntegrate"

	run.logger.Info("merging release", "branch", run.branch, "into", run.integration)
	if err := s.provider.Checkout(ctx, run.integration); err != nil {
		return "", rperrors.GitWrap(err, op, "cannot switch to "+run.integration)
	}
	if err := s.pullBeforeMerge(ctx, run, run.integration); err != nil {
		return "", err
	}

	msg := s.cfg.Release.MergeMessageFor(run.version)
	if err := s.provider.Merge(ctx, run.branch, msg, true); err != nil {
		return "", rperrors.GitWrap(err, op, fmt.Sprintf("cannot merge %s into %s", run.branch, run.integration))
	}
	run.merged = true
	run.step("Merged %s to %s", run.branch, run.integration)
	return EventIntegrated, nil
}

func (s *Service) finishTag(ctx context.Context, run *finishRun) (statekit.EventType, error) {
	const op = "release.finishTag"

	run.logger.Info("creating tag", "tag", run.version)
	if err := s.provider.CreateTag(ctx, run.version, s.cfg.Release.TagMessageFor(run.version)); err != nil {
		return "", rperrors.GitWrap(err, op, "cannot create tag "+run.version)
	}
	run.tagged = true
	run.step("Created tag %s", run.version)
	return EventTagged, nil
}

func (s *Service) finishBackmerge(ctx context.Context, run *finishRun) (statekit.EventType, error) {
	const op = "release.finishBackmerge"

	if !run.hasDevelop {
		s.warnf(&run.res.Warnings, "No '%s' branch found, skipping merge back", s.layout.Develop)
		return EventBackmerged, nil
	}

	develop := s.layout.Develop
	run.logger.Info("merging back", "branch", run.integration, "into", develop)
	if err := s.provider.Checkout(ctx, develop); err != nil {
		return "", rperrors.GitWrap(err, op, "cannot switch to "+develop)
	}
	if err := s.pullBeforeMerge(ctx, run, develop); err != nil {
		return "", err
	}

	msg := s.cfg.Release.MergeMessageFor(run.version)
	if err := s.provider.Merge(ctx, run.integration, msg, true); err != nil {
		return "", rperrors.GitWrap(err, op, fmt.Sprintf("cannot merge %s into %s", run.integration, develop))
	}
	run.step("Merged %s back to %s", run.integration, develop)
	return EventBackmerged, nil
}

func (s *Service) finishClean(ctx context.Context, run *finishRun) (statekit.EventType, error) {
	const op = "release.finishClean"

	run.logger.Info("deleting release branch", "branch", run.branch)
	if err := s.provider.DeleteBranch(ctx, run.branch, false); err != nil {
		return "", rperrors.GitWrap(err, op, "cannot delete "+run.branch)
	}
	run.branchDeleted = true

	if !s.publishes(run.hasRemote) {
		run.step("Deleted local release branch")
		return EventCleaned, nil
	}

	err := s.remote("Deleting remote "+run.branch, func() error {
		return s.provider.DeleteRemoteBranch(ctx, s.remoteName(), run.branch)
	})
	if err != nil {
		run.logger.Debug("remote branch delete failed", "error", err)
		s.warnf(&run.res.Warnings, "Local branch deleted but remote branch deletion failed")
		s.warnf(&run.res.Warnings, "You may need to delete the remote branch manually")
		run.step("Deleted local release branch")
		return EventCleaned, nil
	}
	run.step("Deleted local and remote release branch")
	return EventCleaned, nil
}

type remoteOp struct {
	desc string
	fn   func() error
}

func (s *Service) finishPublish(ctx context.Context, run *finishRun) (statekit.EventType, error) {
	if !s.publishes(run.hasRemote) {
		return EventPublished, nil
	}

	remote := s.remoteName()
	pushed := []string{run.integration, "tags"}
	ops := []remoteOp{
		{"Pushing " + run.integration, func() error { return s.provider.Push(ctx, remote, run.integration, false) }},
		{"Pushing tags", func() error { return s.provider.PushTags(ctx, remote) }},
	}
	if run.hasDevelop {
		develop := s.layout.Develop
		pushed = append(pushed, develop)
		ops = append(ops, remoteOp{"Pushing " + develop, func() error { return s.provider.Push(ctx, remote, develop, false) }})
	}

	for _, op := range ops {
		if err := s.remote(op.desc, op.fn); err != nil {
			s.warnf(&run.res.Warnings, "Failed to push some changes: %v", err)
			s.warnf(&run.res.Warnings, "You may need to push manually")
			return EventPublished, nil
		}
	}
	run.step("Pushed %s to %s", strings.Join(pushed, ", "), remote)
	return EventPublished, nil
}

func (s *Service) finishSwitch(ctx context.Context, run *finishRun) (statekit.EventType, error) {
	const op = "release.finishSwitch"

	target := run.integration
	if run.hasDevelop {
		target = s.layout.Develop
	}
	if err := s.provider.Checkout(ctx, target); err != nil {
		return "", rperrors.GitWrap(err, op, "cannot switch to "+target)
	}
	run.res.FinalBranch = target
	run.step("Switched to %s", target)
	return EventSwitched, nil
}
