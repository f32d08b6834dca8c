// Package sourcecontrol provides the port through which release workflows
// drive a version-control system.
package sourcecontrol

import (
	"context"
)

// BranchReader provides read access to local branches.
type BranchReader interface {
	// CurrentBranch returns the checked-out branch. It fails with
	// ErrDetachedHead when HEAD does not point at a branch.
	CurrentBranch(ctx context.Context) (string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
}

// BranchWriter creates, switches, merges and deletes local branches.
type BranchWriter interface {
	// CreateBranch creates name at HEAD and optionally checks it out.
	CreateBranch(ctx context.Context, name string, checkout bool) error
	Checkout(ctx context.Context, name string) error
	// Merge merges branch into the current branch. With noFF a merge commit
	// is always created.
	Merge(ctx context.Context, branch, message string, noFF bool) error
	// DeleteBranch deletes a local branch. Without force the branch must be
	// fully merged into HEAD.
	DeleteBranch(ctx context.Context, name string, force bool) error
}

// TagReader provides read access to tags.
type TagReader interface {
	// Tags returns the short names of all tags.
	Tags(ctx context.Context) ([]string, error)
}

// TagWriter creates tags at HEAD.
type TagWriter interface {
	// CreateTag creates a lightweight tag, or an annotated one when message
	// is not empty.
	CreateTag(ctx context.Context, name, message string) error
}

// WorkingTreeInspector reports working tree state.
type WorkingTreeInspector interface {
	// IsClean reports whether there are no staged, unstaged or untracked changes.
	IsClean(ctx context.Context) (bool, error)
}

// Committer records changes.
type Committer interface {
	// Commit stages files (everything when none are given) and commits them.
	Commit(ctx context.Context, message string, files ...string) error
}

// RemoteOperator provides operations against remote repositories.
type RemoteOperator interface {
	HasRemote(ctx context.Context) (bool, error)
	Push(ctx context.Context, remote, branch string, setUpstream bool) error
	PushTags(ctx context.Context, remote string) error
	Pull(ctx context.Context, remote, branch string) error
	// DeleteRemoteBranch removes branch from remote. It is a no-op when the
	// remote has no such branch.
	DeleteRemoteBranch(ctx context.Context, remote, branch string) error
}

// Provider is everything a release workflow needs from version control.
// Implemented in the infrastructure layer.
type Provider interface {
	BranchReader
	BranchWriter
	TagReader
	TagWriter
	WorkingTreeInspector
	Committer
	RemoteOperator
}
