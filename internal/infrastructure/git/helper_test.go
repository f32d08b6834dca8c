package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// testRepoHelper provides helper functions for creating test git repositories.
type testRepoHelper struct {
	t       *testing.T
	repoDir string
	repo    *git.Repository
}

// newTestRepo creates a repository with "main" as its unborn default branch.
func newTestRepo(t *testing.T) *testRepoHelper {
	t.Helper()

	repoDir := t.TempDir()
	repo, err := git.PlainInitWithOptions(repoDir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("failed to init test repo: %v", err)
	}

	return &testRepoHelper{
		t:       t,
		repoDir: repoDir,
		repo:    repo,
	}
}

// writeFile writes a file relative to the repository root.
func (h *testRepoHelper) writeFile(name, content string) {
	h.t.Helper()

	path := filepath.Join(h.repoDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}
}

// makeCommit writes test.txt and commits it.
func (h *testRepoHelper) makeCommit(message string) plumbing.Hash {
	h.t.Helper()

	h.writeFile("test.txt", message)

	worktree, err := h.repo.Worktree()
	if err != nil {
		h.t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add("test.txt"); err != nil {
		h.t.Fatalf("failed to stage file: %v", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		h.t.Fatalf("failed to commit: %v", err)
	}
	return hash
}

// makeTag creates a lightweight tag, or an annotated one with a message.
func (h *testRepoHelper) makeTag(name, message string) {
	h.t.Helper()

	head, err := h.repo.Head()
	if err != nil {
		h.t.Fatalf("failed to get HEAD: %v", err)
	}

	if message != "" {
		_, err = h.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
			Message: message,
			Tagger: &object.Signature{
				Name:  "Test Tagger",
				Email: "tagger@example.com",
				When:  time.Now(),
			},
		})
	} else {
		ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), head.Hash())
		err = h.repo.Storer.SetReference(ref)
	}
	if err != nil {
		h.t.Fatalf("failed to create tag: %v", err)
	}
}

// addRemote registers a remote pointing at a path that does not exist, so
// every go-git transport call fails.
func (h *testRepoHelper) addRemote(name string) {
	h.t.Helper()

	_, err := h.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{filepath.Join(h.t.TempDir(), "missing.git")},
	})
	if err != nil {
		h.t.Fatalf("failed to create remote: %v", err)
	}
}

// head returns the commit HEAD resolves to.
func (h *testRepoHelper) head() plumbing.Hash {
	h.t.Helper()

	ref, err := h.repo.Head()
	if err != nil {
		h.t.Fatalf("failed to resolve HEAD: %v", err)
	}
	return ref.Hash()
}

// open opens the adapter over the helper repository with go-git only.
func (h *testRepoHelper) open(opts ...Option) *Repository {
	h.t.Helper()

	base := []Option{
		WithPath(h.repoDir),
		WithCLIFallback(false),
		WithRetry(1, 0),
		WithAuthor("Test Author", "test@example.com"),
	}
	r, err := Open(append(base, opts...)...)
	if err != nil {
		h.t.Fatalf("Open() error = %v", err)
	}
	return r
}

// fakeRunner records git executable invocations.
type fakeRunner struct {
	calls [][]string
	out   string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	return f.out, f.err
}
