// Package version provides domain types for semantic versioning.
package version

import (
	"fmt"
	"regexp"
	"strconv"
)

// SemanticVersion is a value object representing a release version.
// All operations return new instances.
type SemanticVersion struct {
	major uint64
	minor uint64
	patch uint64
}

var (
	// semverRegex accepts plain MAJOR.MINOR.PATCH triples only.
	semverRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

	// Zero is the zero version (0.0.0).
	Zero = SemanticVersion{}
)

// NewSemanticVersion creates a new SemanticVersion value object.
func NewSemanticVersion(major, minor, patch uint64) SemanticVersion {
	return SemanticVersion{
		major: major,
		minor: minor,
		patch: patch,
	}
}

// Parse parses a "X.Y.Z" string into a SemanticVersion.
// Prefixes such as "v" are not accepted here; see ParseTag.
func Parse(s string) (SemanticVersion, error) {
	matches := semverRegex.FindStringSubmatch(s)
	if matches == nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	major, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: major component: %v", ErrInvalidVersion, err)
	}

	minor, err := strconv.ParseUint(matches[2], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: minor component: %v", ErrInvalidVersion, err)
	}

	patch, err := strconv.ParseUint(matches[3], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: patch component: %v", ErrInvalidVersion, err)
	}

	return SemanticVersion{major: major, minor: minor, patch: patch}, nil
}

// MustParse parses a version string and panics if invalid.
// Use only for known-good version strings.
func MustParse(s string) SemanticVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether s is a plain MAJOR.MINOR.PATCH version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Major returns the major version component.
func (v SemanticVersion) Major() uint64 {
	return v.major
}

// Minor returns the minor version component.
func (v SemanticVersion) Minor() uint64 {
	return v.minor
}

// Patch returns the patch version component.
func (v SemanticVersion) Patch() uint64 {
	return v.patch
}

// IsZero returns true if this is the zero version.
func (v SemanticVersion) IsZero() bool {
	return v.major == 0 && v.minor == 0 && v.patch == 0
}

// String returns "X.Y.Z".
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Compare compares two versions.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	switch {
	case v.major != other.major:
		return cmpUint(v.major, other.major)
	case v.minor != other.minor:
		return cmpUint(v.minor, other.minor)
	default:
		return cmpUint(v.patch, other.patch)
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// LessThan returns true if v < other.
func (v SemanticVersion) LessThan(other SemanticVersion) bool {
	return v.Compare(other) < 0
}

// GreaterThan returns true if v > other.
func (v SemanticVersion) GreaterThan(other SemanticVersion) bool {
	return v.Compare(other) > 0
}

// Equal returns true if two versions are equal.
func (v SemanticVersion) Equal(other SemanticVersion) bool {
	return v == other
}
