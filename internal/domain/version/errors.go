package version

import "errors"

// Domain errors for version operations.
var (
	// ErrInvalidVersion indicates an invalid version string.
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrInvalidBumpKind indicates a bump type outside major, minor and patch.
	ErrInvalidBumpKind = errors.New("invalid bump type")
)
