package version

import (
	"fmt"
	"slices"
	"strings"
)

// tagPrefixes are stripped from tag names before parsing, longest first.
var tagPrefixes = []string{"release-", "version-", "v"}

// ParseTag parses a tag name such as "v1.2.3" or "release-1.2.3".
// At most one known prefix is removed before the remainder is parsed.
func ParseTag(tag string) (SemanticVersion, error) {
	s := tag
	for _, prefix := range tagPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	return Parse(s)
}

// Catalog is an immutable, ascending snapshot of the versions found in a set
// of tags. Tags that do not name a version are dropped.
type Catalog struct {
	versions []SemanticVersion
}

// NewCatalog builds a Catalog from raw tag names. Input order is irrelevant.
func NewCatalog(tags []string) *Catalog {
	versions := make([]SemanticVersion, 0, len(tags))
	for _, tag := range tags {
		v, err := ParseTag(tag)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	slices.SortStableFunc(versions, SemanticVersion.Compare)
	return &Catalog{versions: versions}
}

// Len returns the number of versions in the catalog.
func (c *Catalog) Len() int {
	return len(c.versions)
}

// Versions returns a copy of the versions in ascending order.
func (c *Catalog) Versions() []SemanticVersion {
	return slices.Clone(c.versions)
}

// Latest returns the highest version, or false when the catalog is empty.
func (c *Catalog) Latest() (SemanticVersion, bool) {
	if len(c.versions) == 0 {
		return Zero, false
	}
	return c.versions[len(c.versions)-1], true
}

// Contains reports whether v is present in the catalog.
func (c *Catalog) Contains(v SemanticVersion) bool {
	_, found := slices.BinarySearchFunc(c.versions, v, SemanticVersion.Compare)
	return found
}

// Suggest returns the next version for the given bump kind. An empty catalog
// yields the kind's baseline (0.1.0, 0.0.1 or 1.0.0).
func (c *Catalog) Suggest(kind BumpType) (SemanticVersion, error) {
	latest, ok := c.Latest()
	if !ok {
		return kind.Baseline()
	}
	return kind.Bump(latest)
}

// MustSuggest is Suggest for kinds known to be valid.
func (c *Catalog) MustSuggest(kind BumpType) SemanticVersion {
	v, err := c.Suggest(kind)
	if err != nil {
		panic(err)
	}
	return v
}

// Summary renders a short human-readable description of the catalog.
func (c *Catalog) Summary() string {
	latest, ok := c.Latest()
	if !ok {
		return "No versions found. Starting from 0.1.0 or 0.0.1."
	}
	return fmt.Sprintf("Latest version: %s\nTotal versions: %d\nNext minor: %s\nNext patch: %s",
		latest, c.Len(), c.MustSuggest(BumpMinor), c.MustSuggest(BumpPatch))
}
