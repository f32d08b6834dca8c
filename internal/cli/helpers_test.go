package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const testChangelog = `# Changelog

All notable changes to this project will be documented in this file.

## Unreleased

- Added export
- Fixed login

## 1.0.0 - 2024-01-01

- Initial release
`

// resetFlags restores every flag of cmd and its children to its default so
// commands can run repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// executeCommand runs grm with args and stdin, returning everything printed
// to stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	origOut, origIn, origInteractive := out, in, isInteractive
	t.Cleanup(func() {
		out, in, isInteractive = origOut, origIn, origInteractive
		logger.SetOutput(os.Stderr)
	})
	out = &buf
	in = strings.NewReader(stdin)
	isInteractive = func() bool { return false }
	logger.SetOutput(io.Discard)

	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeFile writes name below dir.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

// newGitRepo creates a repository on main with the changelog committed and
// the given tags on that commit. The working directory moves into it.
func newGitRepo(t *testing.T, changelogText string, tags ...string) (string, *git.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	repoCfg, err := repo.Config()
	if err != nil {
		t.Fatalf("failed to read repo config: %v", err)
	}
	repoCfg.User.Name = "Test Author"
	repoCfg.User.Email = "test@example.com"
	if err := repo.SetConfig(repoCfg); err != nil {
		t.Fatalf("failed to write repo config: %v", err)
	}

	writeFile(t, dir, "CHANGELOG.md", changelogText)
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add("CHANGELOG.md"); err != nil {
		t.Fatalf("failed to stage changelog: %v", err)
	}
	hash, err := worktree.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test Author", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	for _, tag := range tags {
		if _, err := repo.CreateTag(tag, hash, nil); err != nil {
			t.Fatalf("failed to create tag %s: %v", tag, err)
		}
	}

	t.Chdir(dir)
	return dir, repo
}
