package sourcecontrol

import (
	"context"
	"errors"
	"testing"
)

type fakeBranches struct {
	current  string
	branches map[string]bool
	err      error
}

func (f fakeBranches) CurrentBranch(context.Context) (string, error) {
	return f.current, f.err
}

func (f fakeBranches) BranchExists(_ context.Context, name string) (bool, error) {
	return f.branches[name], f.err
}

func branchesOf(names ...string) fakeBranches {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return fakeBranches{branches: m}
}

func TestBranchLayout_IntegrationBranch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		layout  BranchLayout
		repo    fakeBranches
		want    string
		wantErr error
	}{
		{"main preferred", DefaultBranchLayout(), branchesOf("main", "master"), "main", nil},
		{"master fallback", DefaultBranchLayout(), branchesOf("master", "develop"), "master", nil},
		{"neither", DefaultBranchLayout(), branchesOf("develop", "trunk"), "", ErrNoIntegrationBranch},
		{"configured", BranchLayout{Integration: "trunk"}, branchesOf("main", "trunk"), "trunk", nil},
		{"configured missing", BranchLayout{Integration: "trunk"}, branchesOf("main"), "", ErrBranchNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.layout.IntegrationBranch(ctx, tt.repo)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("IntegrationBranch() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("IntegrationBranch() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IntegrationBranch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBranchLayout_IntegrationBranchPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := DefaultBranchLayout().IntegrationBranch(context.Background(), fakeBranches{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("IntegrationBranch() error = %v, want %v", err, boom)
	}
}

func TestBranchLayout_ReleaseSourceBranch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		layout  BranchLayout
		repo    fakeBranches
		want    string
		wantErr error
	}{
		{"develop exists", DefaultBranchLayout(), branchesOf("main", "develop"), "develop", nil},
		{"no develop", DefaultBranchLayout(), branchesOf("master"), "master", nil},
		{"develop disabled", BranchLayout{ReleasePrefix: "release/"}, branchesOf("main", "develop"), "main", nil},
		{"nothing", DefaultBranchLayout(), branchesOf(), "", ErrNoIntegrationBranch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.layout.ReleaseSourceBranch(ctx, tt.repo)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReleaseSourceBranch() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReleaseSourceBranch() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReleaseSourceBranch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBranchLayout_ReleaseBranches(t *testing.T) {
	l := DefaultBranchLayout()

	if got := l.ReleaseBranch("1.2.0"); got != "release/1.2.0" {
		t.Errorf("ReleaseBranch() = %q", got)
	}

	tests := []struct {
		branch  string
		want    string
		wantErr bool
	}{
		{"release/1.2.0", "1.2.0", false},
		{"release/next", "next", false},
		{"release/", "", true},
		{"main", "", true},
		{"hotfix/1.2.1", "", true},
	}
	for _, tt := range tests {
		got, err := l.ReleaseVersion(tt.branch)
		if (err != nil) != tt.wantErr {
			t.Errorf("ReleaseVersion(%q) error = %v, wantErr %v", tt.branch, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrNotReleaseBranch) {
			t.Errorf("ReleaseVersion(%q) error = %v, want ErrNotReleaseBranch", tt.branch, err)
		}
		if got != tt.want {
			t.Errorf("ReleaseVersion(%q) = %q, want %q", tt.branch, got, tt.want)
		}
	}

	if (BranchLayout{}).IsReleaseBranch("release/1.0.0") {
		t.Error("empty prefix should never match")
	}
}
