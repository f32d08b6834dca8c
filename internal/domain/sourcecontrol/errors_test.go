package sourcecontrol

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotARepository", ErrNotARepository, "not a git repository"},
		{"ErrDetachedHead", ErrDetachedHead, "unable to determine current branch (detached HEAD?)"},
		{"ErrBranchNotFound", ErrBranchNotFound, "branch not found"},
		{"ErrNoIntegrationBranch", ErrNoIntegrationBranch, "neither 'main' nor 'master' branch found"},
		{"ErrNotReleaseBranch", ErrNotReleaseBranch, "not a release branch"},
		{"ErrPushFailed", ErrPushFailed, "push failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, tt.err.Error(), tt.msg)
			}
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("errors.Is(wrapped, %s) = false", tt.name)
			}
		})
	}
}
