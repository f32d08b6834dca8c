package release

import "errors"

var (
	// ErrDirtyWorkingTree is returned when the working tree has uncommitted
	// or untracked changes.
	ErrDirtyWorkingTree = errors.New("working directory has uncommitted changes, please commit or stash them first")

	// ErrCanceled is returned when the user declines a confirmation.
	ErrCanceled = errors.New("release canceled")

	// ErrChangelogMissing is returned when no changelog exists and none is created.
	ErrChangelogMissing = errors.New("changelog is required for release management")

	// ErrNoUnreleasedContent is returned when the user declines to release an
	// empty Unreleased section.
	ErrNoUnreleasedContent = errors.New("release canceled, no content to release")

	// ErrVersionMismatch is returned when the newest changelog section and the
	// newest tag name different versions.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrVersionExists is returned when the release version is already tagged.
	ErrVersionExists = errors.New("version already exists")

	// ErrWrongBranch is returned when start runs outside the release source branch.
	ErrWrongBranch = errors.New("wrong branch")
)
