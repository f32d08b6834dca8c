// Package changelog implements the line-oriented rewriting engine for
// Keep a Changelog style documents.
//
// Every operation takes the whole document as a value and re-parses it;
// nothing is cached between calls and no operation performs I/O.
package changelog

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the layout of the date in a version header.
const DateLayout = "2006-01-02"

const (
	unreleasedHeader = "## Unreleased"
	sectionPrefix    = "## "
)

// versionHeaderRegex matches "## 1.2.3 - 2024-01-15" after trimming.
var versionHeaderRegex = regexp.MustCompile(`^## (\d+\.\d+\.\d+) - (\d{4}-\d{2}-\d{2})$`)

// Section locates the Unreleased section inside a slice of lines.
// The body is the half-open range [ContentStart, ContentEnd).
type Section struct {
	// Header is the index of the "## Unreleased" line.
	Header int
	// ContentStart is the index of the first non-blank line after the header,
	// or the end of the body when the section is empty.
	ContentStart int
	// ContentEnd is the index of the next section header, or len(lines).
	ContentEnd int
}

// Empty reports whether the section has no body lines.
func (s Section) Empty() bool {
	return s.ContentStart == s.ContentEnd
}

// VersionSection is a dated release header found in a changelog.
type VersionSection struct {
	Version string
	Date    string
}

// String renders the section header.
func (v VersionSection) String() string {
	return fmt.Sprintf("## %s - %s", v.Version, v.Date)
}

// Lines splits text into physical lines. A trailing newline yields a final
// empty element so that joining with "\n" restores the input.
func Lines(text string) []string {
	return strings.Split(text, "\n")
}

// IsUnreleasedHeader reports whether line is an Unreleased header,
// ignoring case and surrounding whitespace.
func IsUnreleasedHeader(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), unreleasedHeader)
}

// isSectionBoundary reports whether line starts a section that ends the
// Unreleased body. Only second-level headers count.
func isSectionBoundary(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, sectionPrefix) && !IsUnreleasedHeader(trimmed)
}

// ParseVersionHeader returns the version section named by line, if any.
func ParseVersionHeader(line string) (VersionSection, bool) {
	m := versionHeaderRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return VersionSection{}, false
	}
	return VersionSection{Version: m[1], Date: m[2]}, true
}

// LocateUnreleasedSection finds the first Unreleased header and the range of
// its body. It returns ErrSectionNotFound when there is no such header.
func LocateUnreleasedSection(lines []string) (Section, error) {
	header := -1
	for i, line := range lines {
		if IsUnreleasedHeader(line) {
			header = i
			break
		}
	}
	if header < 0 {
		return Section{}, ErrSectionNotFound
	}

	start := len(lines)
	for i := header + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			start = i
			break
		}
	}

	// A boundary at start yields an empty section.
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isSectionBoundary(lines[i]) {
			end = i
			break
		}
	}

	return Section{Header: header, ContentStart: start, ContentEnd: end}, nil
}

// ExtractUnreleasedContent returns the non-blank lines of the Unreleased
// section with trailing whitespace removed. A present but empty section
// yields an empty slice.
func ExtractUnreleasedContent(text string) ([]string, error) {
	lines := Lines(text)
	sec, err := LocateUnreleasedSection(lines)
	if err != nil {
		return nil, err
	}

	content := make([]string, 0, sec.ContentEnd-sec.ContentStart)
	for _, line := range lines[sec.ContentStart:sec.ContentEnd] {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		content = append(content, line)
	}
	return content, nil
}

// HasUnreleasedContent reports whether the Unreleased section exists and
// holds at least one non-blank line.
func HasUnreleasedContent(text string) bool {
	content, err := ExtractUnreleasedContent(text)
	return err == nil && len(content) > 0
}

type moveOptions struct {
	date  string
	clock func() time.Time
}

// MoveOption configures MoveUnreleasedToVersion.
type MoveOption func(*moveOptions)

// WithDate sets the release date. It must be a real calendar date in
// YYYY-MM-DD form.
func WithDate(date string) MoveOption {
	return func(o *moveOptions) {
		o.date = date
	}
}

// WithClock sets the clock used when no date is given.
func WithClock(clock func() time.Time) MoveOption {
	return func(o *moveOptions) {
		o.clock = clock
	}
}

// ValidateDate checks that date is a real calendar date in YYYY-MM-DD form.
func ValidateDate(date string) error {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil || parsed.Year() < 1 {
		return fmt.Errorf("%w: %s. Expected YYYY-MM-DD", ErrInvalidDate, date)
	}
	return nil
}

// MoveUnreleasedToVersion promotes the Unreleased body into a new
// "## <version> - <date>" section directly below the Unreleased header.
//
// The version string is inserted as given. When the Unreleased section is
// empty no version section is created and only the spacing after the header
// is normalized to a single blank line. Lines outside the header and the
// moved body are returned unchanged.
func MoveUnreleasedToVersion(text, version string, opts ...MoveOption) (string, error) {
	o := moveOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	date := o.date
	if date == "" {
		date = o.clock().Format(DateLayout)
	}
	if err := ValidateDate(date); err != nil {
		return "", err
	}

	lines := Lines(text)
	sec, err := LocateUnreleasedSection(lines)
	if err != nil {
		return "", err
	}

	content := trimBlankLines(lines[sec.ContentStart:sec.ContentEnd])

	out := make([]string, 0, len(lines)+4)
	out = append(out, lines[:sec.Header+1]...)
	out = append(out, "")
	if len(content) > 0 {
		out = append(out, VersionSection{Version: version, Date: date}.String(), "")
		out = append(out, content...)
		out = append(out, "")
	}
	out = append(out, lines[sec.ContentEnd:]...)

	return strings.Join(out, "\n"), nil
}

// ListVersionSections returns every version header in document order.
func ListVersionSections(text string) []VersionSection {
	var sections []VersionSection
	for _, line := range Lines(text) {
		if vs, ok := ParseVersionHeader(line); ok {
			sections = append(sections, vs)
		}
	}
	return sections
}

// LatestVersionSection returns the first version header in the document,
// which is the newest release in a conventionally ordered changelog.
func LatestVersionSection(text string) (VersionSection, bool) {
	for _, line := range Lines(text) {
		if vs, ok := ParseVersionHeader(line); ok {
			return vs, true
		}
	}
	return VersionSection{}, false
}

// trimBlankLines drops leading and trailing blank lines. Interior blank
// lines are kept.
func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
