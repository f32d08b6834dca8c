package sourcecontrol

import "errors"

// Domain errors for source control operations.
var (
	// ErrNotARepository indicates the path is not a git repository.
	ErrNotARepository = errors.New("not a git repository")

	// ErrDetachedHead indicates HEAD does not point at a branch.
	ErrDetachedHead = errors.New("unable to determine current branch (detached HEAD?)")

	// ErrBranchNotFound indicates the branch was not found.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrBranchExists indicates a branch with that name already exists.
	ErrBranchExists = errors.New("branch already exists")

	// ErrTagAlreadyExists indicates the tag already exists.
	ErrTagAlreadyExists = errors.New("tag already exists")

	// ErrRemoteNotFound indicates the remote was not found.
	ErrRemoteNotFound = errors.New("remote not found")

	// ErrNoIntegrationBranch indicates neither candidate integration branch exists.
	ErrNoIntegrationBranch = errors.New("neither 'main' nor 'master' branch found")

	// ErrNotReleaseBranch indicates the branch does not follow the release naming scheme.
	ErrNotReleaseBranch = errors.New("not a release branch")

	// ErrMergeConflict indicates a merge stopped on conflicts.
	ErrMergeConflict = errors.New("merge conflict")

	// ErrBranchNotMerged indicates a safe delete was refused.
	ErrBranchNotMerged = errors.New("branch is not fully merged")

	// ErrPushFailed indicates a push operation failed.
	ErrPushFailed = errors.New("push failed")

	// ErrPullFailed indicates a pull operation failed.
	ErrPullFailed = errors.New("pull failed")
)
