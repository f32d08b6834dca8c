package version

import (
	"fmt"
	"strings"
)

// BumpType represents the type of version bump to apply.
type BumpType string

const (
	// BumpMajor increments the major component and resets minor and patch.
	BumpMajor BumpType = "major"
	// BumpMinor increments the minor component and resets patch.
	BumpMinor BumpType = "minor"
	// BumpPatch increments the patch component.
	BumpPatch BumpType = "patch"
)

// AllBumpTypes lists bump types in the order they are offered to users.
var AllBumpTypes = []BumpType{BumpMinor, BumpPatch, BumpMajor}

// IsValid returns true if the bump type is valid.
func (b BumpType) IsValid() bool {
	switch b {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	default:
		return false
	}
}

// String returns the string representation of the bump type.
func (b BumpType) String() string {
	return string(b)
}

// ParseBumpType parses a string into a BumpType. Matching is case-insensitive
// and surrounding whitespace is ignored.
func ParseBumpType(s string) (BumpType, error) {
	bt := BumpType(strings.ToLower(strings.TrimSpace(s)))
	if !bt.IsValid() {
		return "", invalidBumpKind(s)
	}
	return bt, nil
}

func invalidBumpKind(s string) error {
	return fmt.Errorf("%w: %s. Must be 'major', 'minor', or 'patch'", ErrInvalidBumpKind, s)
}

// Bump applies b to v and returns the new version.
func (b BumpType) Bump(v SemanticVersion) (SemanticVersion, error) {
	switch b {
	case BumpMajor:
		return SemanticVersion{major: v.major + 1}, nil
	case BumpMinor:
		return SemanticVersion{major: v.major, minor: v.minor + 1}, nil
	case BumpPatch:
		return SemanticVersion{major: v.major, minor: v.minor, patch: v.patch + 1}, nil
	default:
		return v, invalidBumpKind(string(b))
	}
}

// Baseline returns the first version suggested for b when no release exists yet.
func (b BumpType) Baseline() (SemanticVersion, error) {
	switch b {
	case BumpMajor:
		return NewSemanticVersion(1, 0, 0), nil
	case BumpMinor:
		return NewSemanticVersion(0, 1, 0), nil
	case BumpPatch:
		return NewSemanticVersion(0, 0, 1), nil
	default:
		return Zero, invalidBumpKind(string(b))
	}
}
