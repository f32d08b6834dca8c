package changelog

import (
	"fmt"
	"strings"
)

// Report is the ordered list of structural issues found in a changelog.
// An empty report denotes a valid document.
type Report struct {
	issues []string
}

// NewReport builds a report from issue strings.
func NewReport(issues ...string) Report {
	return Report{issues: append([]string(nil), issues...)}
}

// Valid reports whether no issues were found.
func (r Report) Valid() bool {
	return len(r.issues) == 0
}

// Issues returns a copy of the issues in document order.
func (r Report) Issues() []string {
	return append([]string(nil), r.issues...)
}

// String renders the issues as a bulleted list, one per line.
func (r Report) String() string {
	if r.Valid() {
		return ""
	}
	return "  • " + strings.Join(r.issues, "\n  • ")
}

// Validate checks that text has an Unreleased header and that every other
// second-level header is a well-formed version header. It never fails.
func Validate(text string) Report {
	lines := Lines(text)
	var issues []string

	hasUnreleased := false
	for _, line := range lines {
		if IsUnreleasedHeader(line) {
			hasUnreleased = true
			break
		}
	}
	if !hasUnreleased {
		issues = append(issues, "Missing '## Unreleased' section")
	}

	for i, line := range lines {
		if !isSectionBoundary(line) {
			continue
		}
		if _, ok := ParseVersionHeader(line); !ok {
			issues = append(issues, fmt.Sprintf("Line %d: Invalid version header format: '%s'", i+1, strings.TrimSpace(line)))
		}
	}

	return Report{issues: issues}
}
