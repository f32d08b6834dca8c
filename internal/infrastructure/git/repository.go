// Package git implements the source-control port on top of go-git, with the
// git executable as a fallback for what go-git cannot do.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

// Repository is a sourcecontrol.Provider backed by a local git repository.
type Repository struct {
	cfg     Config
	root    string
	repo    *git.Repository
	runner  Runner
	retrier retry.Retry[struct{}]
	logger  *log.Logger
}

var _ sourcecontrol.Provider = (*Repository)(nil)

// Open discovers the repository containing the configured path.
func Open(opts ...Option) (*Repository, error) {
	const op = "git.Open"

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, rperrors.GitWrap(err, op, "failed to get absolute path")
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, rperrors.GitWrap(sourcecontrol.ErrNotARepository, op, absPath)
		}
		return nil, rperrors.GitWrap(err, op, "failed to open repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, rperrors.GitWrap(err, op, "failed to get worktree")
	}

	r := &Repository{
		cfg:    cfg,
		root:   worktree.Filesystem.Root(),
		repo:   repo,
		runner: cfg.Runner,
		logger: cfg.logger(),
	}
	if r.runner == nil {
		r.runner = execRunner{}
	}
	if cfg.RetryAttempts > 1 {
		r.retrier = retry.New[struct{}](retry.Config{
			MaxAttempts:   cfg.RetryAttempts,
			InitialDelay:  cfg.RetryDelay,
			MaxDelay:      10 * cfg.RetryDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
			Jitter:        true,
			IsRetryable:   isRetryableError,
		})
	}

	return r, nil
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// reopen drops cached repository state after the git executable changed
// the object database behind go-git's back.
func (r *Repository) reopen() error {
	repo, err := git.PlainOpen(r.root)
	if err != nil {
		return err
	}
	r.repo = repo
	return nil
}

func (r *Repository) signature() *object.Signature {
	if r.cfg.AuthorName == "" || r.cfg.AuthorEmail == "" {
		return nil
	}
	return &object.Signature{
		Name:  r.cfg.AuthorName,
		Email: r.cfg.AuthorEmail,
		When:  time.Now(),
	}
}

// CurrentBranch returns the checked-out branch. It works on unborn branches
// by reading the symbolic HEAD without resolving it.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	const op = "git.CurrentBranch"
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", rperrors.GitWrap(err, op, "failed to read HEAD")
	}
	if ref.Type() != plumbing.SymbolicReference || !ref.Target().IsBranch() {
		return "", rperrors.GitWrap(sourcecontrol.ErrDetachedHead, op, "HEAD is not on a branch")
	}
	return ref.Target().Short(), nil
}

// BranchExists reports whether a local branch exists.
func (r *Repository) BranchExists(ctx context.Context, name string) (bool, error) {
	const op = "git.BranchExists"
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, rperrors.GitWrap(err, op, "failed to read branch "+name)
	}
}

// IsClean reports whether the working tree has no changes, untracked files
// included. go-git ignores global excludes, so a dirty answer is confirmed
// with the git executable when the fallback is enabled.
func (r *Repository) IsClean(ctx context.Context) (bool, error) {
	const op = "git.IsClean"
	ctx, cancel := r.withLocalTimeout(ctx)
	defer cancel()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return false, rperrors.GitWrap(err, op, "failed to get worktree")
	}

	status, err := worktree.Status()
	if err != nil {
		if !r.cfg.UseCLIFallback {
			return false, rperrors.GitWrap(err, op, "failed to get status")
		}
		r.logger.Debug("go-git status failed, using git executable", "error", err)
		return r.isCleanCLI(ctx)
	}
	if status.IsClean() || !r.cfg.UseCLIFallback {
		return status.IsClean(), nil
	}
	return r.isCleanCLI(ctx)
}

func (r *Repository) isCleanCLI(ctx context.Context) (bool, error) {
	const op = "git.IsClean"
	out, err := r.runner.Run(ctx, r.root, "status", "--porcelain", "--untracked-files=normal")
	if err != nil {
		return false, rperrors.GitWrap(err, op, "failed to get status")
	}
	return strings.TrimSpace(out) == "", nil
}

// Tags returns the short names of all tags.
func (r *Repository) Tags(ctx context.Context) ([]string, error) {
	const op = "git.Tags"
	ctx, cancel := r.withLocalTimeout(ctx)
	defer cancel()

	iter, err := r.repo.Tags()
	if err != nil {
		return nil, rperrors.GitWrap(err, op, "failed to list tags")
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, rperrors.GitWrap(err, op, "failed to iterate tags")
	}
	return tags, nil
}

// CreateBranch creates name at HEAD, checking it out when asked.
func (r *Repository) CreateBranch(ctx context.Context, name string, checkout bool) error {
	const op = "git.CreateBranch"
	ctx, cancel := r.withLocalTimeout(ctx)
	defer cancel()

	exists, err := r.BranchExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return rperrors.GitWrap(fmt.Errorf("%w: %s", sourcecontrol.ErrBranchExists, name), op, "cannot create branch")
	}

	head, err := r.repo.Head()
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to resolve HEAD")
	}
	refName := plumbing.NewBranchReferenceName(name)

	if !checkout {
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
			return rperrors.GitWrap(err, op, "failed to create branch "+name)
		}
		return nil
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to get worktree")
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Hash:   head.Hash(),
		Branch: refName,
		Create: true,
		Keep:   true,
	})
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to create branch "+name)
	}
	r.logger.Debug("created branch", "branch", name)
	return nil
}

// Checkout switches to an existing local branch.
func (r *Repository) Checkout(ctx context.Context, name string) error {
	const op = "git.Checkout"
	ctx, cancel := r.withLocalTimeout(ctx)
	defer cancel()

	exists, err := r.BranchExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return rperrors.GitWrap(fmt.Errorf("%w: %s", sourcecontrol.ErrBranchNotFound, name), op, "cannot check out branch")
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to get worktree")
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return rperrors.GitWrap(err, op, "failed to check out "+name)
	}
	r.logger.Debug("checked out branch", "branch", name)
	return nil
}

// Commit stages files, or every change when none are given, and commits.
func (r *Repository) Commit(ctx context.Context, message string, files ...string) error {
	const op = "git.Commit"
	if err := ctx.Err(); err != nil {
		return err
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to get worktree")
	}

	if len(files) == 0 {
		if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return rperrors.GitWrap(err, op, "failed to stage changes")
		}
	}
	for _, file := range files {
		if filepath.IsAbs(file) {
			rel, err := filepath.Rel(r.root, file)
			if err != nil {
				return rperrors.GitWrap(err, op, "file is outside the repository")
			}
			file = rel
		}
		if _, err := worktree.Add(filepath.ToSlash(file)); err != nil {
			return rperrors.GitWrap(err, op, "failed to stage "+file)
		}
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{Author: r.signature()})
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to commit")
	}
	r.logger.Debug("committed", "hash", hash.String()[:7], "message", message)
	return nil
}

// Merge merges branch into the current branch. Merge commits need the git
// executable; without it only fast-forward merges are possible.
func (r *Repository) Merge(ctx context.Context, branch, message string, noFF bool) error {
	const op = "git.Merge"
	ctx, cancel := r.withLocalTimeout(ctx)
	defer cancel()

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			err = fmt.Errorf("%w: %s", sourcecontrol.ErrBranchNotFound, branch)
		}
		return rperrors.GitWrap(err, op, "cannot merge")
	}

	if r.cfg.UseCLIFallback {
		args := []string{"merge"}
		if noFF {
			args = append(args, "--no-ff")
		}
		if message != "" {
			args = append(args, "-m", message)
		}
		args = append(args, branch)
		_, err := r.runner.Run(ctx, r.root, args...)
		if reopenErr := r.reopen(); reopenErr != nil {
			return rperrors.GitWrap(reopenErr, op, "failed to reopen repository")
		}
		if err != nil {
			if isConflict(err) {
				return rperrors.GitWrap(fmt.Errorf("%w: %s", sourcecontrol.ErrMergeConflict, branch), op,
					"merge stopped on conflicts, resolve them and commit")
			}
			return rperrors.GitWrap(err, op, "failed to merge "+branch)
		}
		r.logger.Debug("merged", "branch", branch, "no_ff", noFF)
		return nil
	}

	if noFF {
		return rperrors.Git(op, "merge commits require the git executable (enable git.use_cli_fallback)")
	}
	if err := r.repo.Merge(*ref, git.MergeOptions{Strategy: git.FastForwardMerge}); err != nil {
		return rperrors.GitWrap(err, op, "failed to merge "+branch)
	}
	// Merge only moves the branch ref; bring index and files along.
	worktree, err := r.repo.Worktree()
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to get worktree")
	}
	if err := worktree.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.MergeReset}); err != nil {
		return rperrors.GitWrap(err, op, "failed to update worktree")
	}
	return nil
}

// CreateTag tags HEAD. An empty message creates a lightweight tag.
func (r *Repository) CreateTag(ctx context.Context, name, message string) error {
	const op = "git.CreateTag"
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := r.repo.Tag(name)
	switch {
	case err == nil:
		return rperrors.GitWrap(fmt.Errorf("%w: %s", sourcecontrol.ErrTagAlreadyExists, name), op, "cannot create tag")
	case !errors.Is(err, git.ErrTagNotFound):
		return rperrors.GitWrap(err, op, "failed to look up tag "+name)
	}

	head, err := r.repo.Head()
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to resolve HEAD")
	}

	if message == "" {
		ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), head.Hash())
		err = r.repo.Storer.SetReference(ref)
	} else {
		_, err = r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
			Message: message,
			Tagger:  r.signature(),
		})
	}
	if err != nil {
		return rperrors.GitWrap(err, op, "failed to create tag "+name)
	}
	r.logger.Debug("created tag", "tag", name, "annotated", message != "")
	return nil
}

// DeleteBranch deletes a local branch. Without force it refuses to delete a
// branch that is not an ancestor of HEAD.
func (r *Repository) DeleteBranch(ctx context.Context, name string, force bool) error {
	const op = "git.DeleteBranch"
	ctx, cancel := r.withLocalTimeout(ctx)
	defer cancel()

	current, err := r.CurrentBranch(ctx)
	if err == nil && current == name {
		return rperrors.Git(op, "cannot delete the checked-out branch "+name)
	}

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			err = fmt.Errorf("%w: %s", sourcecontrol.ErrBranchNotFound, name)
		}
		return rperrors.GitWrap(err, op, "cannot delete branch")
	}

	if !force {
		merged, err := r.mergedIntoHead(ref.Hash())
		if err != nil {
			return rperrors.GitWrap(err, op, "failed to check merge state")
		}
		if !merged {
			return rperrors.GitWrap(fmt.Errorf("%w: %s", sourcecontrol.ErrBranchNotMerged, name), op, "cannot delete branch")
		}
	}

	if err := r.repo.Storer.RemoveReference(ref.Name()); err != nil {
		return rperrors.GitWrap(err, op, "failed to delete branch "+name)
	}
	if err := r.repo.DeleteBranch(name); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return rperrors.GitWrap(err, op, "failed to remove branch config")
	}
	r.logger.Debug("deleted branch", "branch", name)
	return nil
}

func (r *Repository) mergedIntoHead(hash plumbing.Hash) (bool, error) {
	head, err := r.repo.Head()
	if err != nil {
		return false, err
	}
	if head.Hash() == hash {
		return true, nil
	}

	branchCommit, err := r.repo.CommitObject(hash)
	if err != nil {
		return false, err
	}
	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return false, err
	}
	return branchCommit.IsAncestor(headCommit)
}
