// Package persistence provides file-backed storage for the project changelog.
package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/relicta-tech/grm/internal/domain/changelog"
	rperrors "github.com/relicta-tech/grm/internal/errors"
	"github.com/relicta-tech/grm/internal/fileutil"
)

const defaultChangelogPerm os.FileMode = 0o644

// checkContext checks if the context is canceled and returns the error if so.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// ChangelogStore reads and writes one changelog file.
type ChangelogStore struct {
	fs   afero.Fs
	path string
	mu   sync.RWMutex
}

// NewChangelogStore creates a store for path on fs.
func NewChangelogStore(fs afero.Fs, path string) *ChangelogStore {
	if path == "" {
		path = changelog.DefaultFileName
	}
	return &ChangelogStore{fs: fs, path: path}
}

// NewOSChangelogStore creates a store for path relative to root on the
// local filesystem. A relative root is resolved against the working
// directory.
func NewOSChangelogStore(root, path string) *ChangelogStore {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return NewChangelogStore(afero.NewBasePathFs(afero.NewOsFs(), root), path)
}

// Path returns the changelog path relative to the store root.
func (s *ChangelogStore) Path() string {
	return s.path
}

// Name returns the changelog file name.
func (s *ChangelogStore) Name() string {
	return filepath.Base(s.path)
}

// Exists reports whether the changelog file exists.
func (s *ChangelogStore) Exists(ctx context.Context) (bool, error) {
	const op = "persistence.Exists"
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ok, err := fileutil.Exists(s.fs, s.path)
	if err != nil {
		return false, rperrors.IOWrap(err, op, "cannot stat changelog")
	}
	return ok, nil
}

// Read returns the full changelog text.
func (s *ChangelogStore) Read(ctx context.Context) (string, error) {
	const op = "persistence.Read"
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := fileutil.ReadFileLimited(s.fs, s.path, fileutil.MaxChangelogSize)
	if err != nil {
		return "", rperrors.IOWrap(err, op, "cannot read "+s.path)
	}
	return string(data), nil
}

// Write replaces the changelog text, keeping the file mode of an existing file.
func (s *ChangelogStore) Write(ctx context.Context, text string) error {
	const op = "persistence.Write"
	if err := checkContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perm := defaultChangelogPerm
	if info, err := s.fs.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return rperrors.IOWrap(err, op, "cannot create changelog directory")
		}
	}
	if err := fileutil.AtomicWriteFile(s.fs, s.path, []byte(text), perm); err != nil {
		return rperrors.IOWrap(err, op, "cannot write "+s.path)
	}
	return nil
}

// CreateInitial writes the empty changelog template. It refuses to
// overwrite an existing file.
func (s *ChangelogStore) CreateInitial(ctx context.Context) error {
	const op = "persistence.CreateInitial"

	exists, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return rperrors.Wrapf(os.ErrExist, rperrors.KindConflict, op, "%s already exists", s.path)
	}
	return s.Write(ctx, changelog.InitialTemplate)
}

// Validate checks the stored changelog. A missing or unreadable file is
// reported as an issue, not an error.
func (s *ChangelogStore) Validate(ctx context.Context) changelog.Report {
	if err := checkContext(ctx); err != nil {
		return changelog.NewReport(fmt.Sprintf("Cannot read changelog: %v", err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	exists, err := fileutil.Exists(s.fs, s.path)
	if err != nil {
		return changelog.NewReport(fmt.Sprintf("Cannot read changelog: %v", err))
	}
	if !exists {
		return changelog.NewReport(s.Name() + " does not exist")
	}

	data, err := fileutil.ReadFileLimited(s.fs, s.path, fileutil.MaxChangelogSize)
	if err != nil {
		return changelog.NewReport(fmt.Sprintf("Cannot read changelog: %v", err))
	}
	return changelog.Validate(string(data))
}

// Unreleased returns the non-blank lines of the Unreleased section.
func (s *ChangelogStore) Unreleased(ctx context.Context) ([]string, error) {
	text, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return changelog.ExtractUnreleasedContent(text)
}

// HasUnreleased reports whether the Unreleased section holds any entries.
func (s *ChangelogStore) HasUnreleased(ctx context.Context) (bool, error) {
	text, err := s.Read(ctx)
	if err != nil {
		return false, err
	}
	return changelog.HasUnreleasedContent(text), nil
}

// VersionSections returns the dated version sections in file order.
func (s *ChangelogStore) VersionSections(ctx context.Context) ([]changelog.VersionSection, error) {
	text, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return changelog.ListVersionSections(text), nil
}

// MoveUnreleased moves the Unreleased content under a new version header and
// writes the result back. It returns the new text.
func (s *ChangelogStore) MoveUnreleased(ctx context.Context, version string, opts ...changelog.MoveOption) (string, error) {
	const op = "persistence.MoveUnreleased"

	text, err := s.Read(ctx)
	if err != nil {
		return "", err
	}

	updated, err := changelog.MoveUnreleasedToVersion(text, version, opts...)
	if err != nil {
		return "", rperrors.ChangelogWrap(err, op, "cannot move unreleased changes")
	}
	if updated == text {
		return text, nil
	}

	if err := s.Write(ctx, updated); err != nil {
		return "", err
	}
	return updated, nil
}
