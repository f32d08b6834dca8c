package changelog

import "errors"

// Domain errors for changelog operations.
var (
	// ErrSectionNotFound indicates the document has no "## Unreleased" header.
	ErrSectionNotFound = errors.New("'## Unreleased' section not found in changelog")

	// ErrInvalidDate indicates a release date that is not a real YYYY-MM-DD date.
	ErrInvalidDate = errors.New("invalid date format")
)
