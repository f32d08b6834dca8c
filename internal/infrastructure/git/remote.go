package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

// HasRemote reports whether at least one remote is configured.
func (r *Repository) HasRemote(ctx context.Context) (bool, error) {
	const op = "git.HasRemote"
	if err := ctx.Err(); err != nil {
		return false, err
	}

	remotes, err := r.repo.Remotes()
	if err != nil {
		return false, rperrors.GitWrap(err, op, "failed to list remotes")
	}
	return len(remotes) > 0, nil
}

// Push pushes a local branch to the same name on remote.
func (r *Repository) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	const op = "git.Push"
	if err := r.requireRemote(op, remote); err != nil {
		return err
	}

	spec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err := r.remoteCall(ctx, op,
		func(ctx context.Context) error {
			return r.repo.PushContext(ctx, &git.PushOptions{
				RemoteName: remote,
				RefSpecs:   []config.RefSpec{spec},
			})
		},
		func(ctx context.Context) error {
			args := []string{"push"}
			if setUpstream {
				args = append(args, "--set-upstream")
			}
			_, err := r.runner.Run(ctx, r.root, append(args, remote, branch)...)
			return err
		},
	)
	if err != nil {
		return rperrors.NetworkWrap(fmt.Errorf("%w: %w", sourcecontrol.ErrPushFailed, err), op,
			fmt.Sprintf("cannot push '%s' to %s", branch, remote))
	}

	if setUpstream {
		if err := r.setUpstream(remote, branch); err != nil {
			return rperrors.GitWrap(err, op, "failed to set upstream for "+branch)
		}
	}
	r.logger.Debug("pushed branch", "remote", remote, "branch", branch)
	return nil
}

// PushTags pushes all tags to remote.
func (r *Repository) PushTags(ctx context.Context, remote string) error {
	const op = "git.PushTags"
	if err := r.requireRemote(op, remote); err != nil {
		return err
	}

	err := r.remoteCall(ctx, op,
		func(ctx context.Context) error {
			return r.repo.PushContext(ctx, &git.PushOptions{
				RemoteName: remote,
				RefSpecs:   []config.RefSpec{"refs/tags/*:refs/tags/*"},
			})
		},
		func(ctx context.Context) error {
			_, err := r.runner.Run(ctx, r.root, "push", remote, "--tags")
			return err
		},
	)
	if err != nil {
		return rperrors.NetworkWrap(fmt.Errorf("%w: %w", sourcecontrol.ErrPushFailed, err), op, "cannot push tags to "+remote)
	}
	r.logger.Debug("pushed tags", "remote", remote)
	return nil
}

// Pull fetches branch from remote and merges it into the current branch.
// go-git only fast-forwards; diverged histories go through the git executable.
func (r *Repository) Pull(ctx context.Context, remote, branch string) error {
	const op = "git.Pull"
	if err := r.requireRemote(op, remote); err != nil {
		return err
	}

	usedCLI := false
	err := r.remoteCall(ctx, op,
		func(ctx context.Context) error {
			worktree, err := r.repo.Worktree()
			if err != nil {
				return err
			}
			return worktree.PullContext(ctx, &git.PullOptions{
				RemoteName:    remote,
				ReferenceName: plumbing.NewBranchReferenceName(branch),
			})
		},
		func(ctx context.Context) error {
			usedCLI = true
			_, err := r.runner.Run(ctx, r.root, "pull", "--no-rebase", remote, branch)
			return err
		},
	)
	if usedCLI {
		// The executable may have written new packfiles.
		if reopenErr := r.reopen(); reopenErr != nil {
			return rperrors.GitWrap(reopenErr, op, "failed to reopen repository")
		}
	}
	if err != nil {
		return rperrors.NetworkWrap(fmt.Errorf("%w: %w", sourcecontrol.ErrPullFailed, err), op,
			fmt.Sprintf("cannot pull '%s' from %s", branch, remote))
	}
	r.logger.Debug("pulled branch", "remote", remote, "branch", branch)
	return nil
}

// DeleteRemoteBranch deletes branch on remote. It does nothing when no
// remote-tracking ref for the branch exists.
func (r *Repository) DeleteRemoteBranch(ctx context.Context, remote, branch string) error {
	const op = "git.DeleteRemoteBranch"
	if err := r.requireRemote(op, remote); err != nil {
		return err
	}

	tracking := plumbing.NewRemoteReferenceName(remote, branch)
	if _, err := r.repo.Reference(tracking, false); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			r.logger.Debug("remote branch absent, nothing to delete", "remote", remote, "branch", branch)
			return nil
		}
		return rperrors.GitWrap(err, op, "failed to read remote-tracking branch")
	}

	err := r.remoteCall(ctx, op,
		func(ctx context.Context) error {
			return r.repo.PushContext(ctx, &git.PushOptions{
				RemoteName: remote,
				RefSpecs:   []config.RefSpec{config.RefSpec(":refs/heads/" + branch)},
			})
		},
		func(ctx context.Context) error {
			_, err := r.runner.Run(ctx, r.root, "push", remote, "--delete", branch)
			return err
		},
	)
	if err != nil {
		return rperrors.NetworkWrap(err, op, fmt.Sprintf("cannot delete '%s' on %s", branch, remote))
	}

	if err := r.repo.Storer.RemoveReference(tracking); err != nil {
		r.logger.Debug("failed to remove remote-tracking ref", "ref", tracking.String(), "error", err)
	}
	r.logger.Debug("deleted remote branch", "remote", remote, "branch", branch)
	return nil
}

func (r *Repository) requireRemote(op, name string) error {
	if _, err := r.repo.Remote(name); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			err = fmt.Errorf("%w: %s", sourcecontrol.ErrRemoteNotFound, name)
		}
		return rperrors.GitWrap(err, op, "cannot use remote")
	}
	return nil
}

func (r *Repository) setUpstream(remote, branch string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return err
	}
	cfg.Branches[branch] = &config.Branch{
		Name:   branch,
		Remote: remote,
		Merge:  plumbing.NewBranchReferenceName(branch),
	}
	return r.repo.SetConfig(cfg)
}

// remoteCall runs native, falling back to cli when go-git fails and the
// fallback is enabled. Each attempt gets its own remote timeout and the
// whole call is retried on transient failures.
func (r *Repository) remoteCall(ctx context.Context, op string, native, cli func(context.Context) error) error {
	attempt := func(ctx context.Context) (struct{}, error) {
		ctx, cancel := r.withRemoteTimeout(ctx)
		defer cancel()

		err := native(ctx)
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			return struct{}{}, nil
		}
		if !r.cfg.UseCLIFallback || !fallbackWorthy(err) {
			return struct{}{}, err
		}
		r.logger.Debug("go-git failed, using git executable", "op", op, "error", rperrors.RedactError(err))
		return struct{}{}, cli(ctx)
	}

	if r.retrier == nil {
		_, err := attempt(ctx)
		return err
	}
	_, err := r.retrier.Do(ctx, attempt)
	return err
}

// fallbackWorthy reports whether the git executable might succeed where
// go-git failed. Cancellation is final either way.
func fallbackWorthy(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// isRetryableError reports whether a remote failure looks transient.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrRepositoryNotFound) ||
		errors.Is(err, git.ErrNonFastForwardUpdate) ||
		errors.Is(err, git.ErrRemoteNotFound) {
		return false
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "rejected") ||
		strings.Contains(errStr, "non-fast-forward") ||
		strings.Contains(errStr, "conflict") ||
		strings.Contains(errStr, "authentication failed") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "could not read username") {
		return false
	}

	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "temporary") ||
		strings.Contains(errStr, "could not resolve host") ||
		strings.Contains(errStr, "remote end hung up") ||
		strings.Contains(errStr, "early eof") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return true
	}

	return false
}
