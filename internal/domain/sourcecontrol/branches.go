package sourcecontrol

import (
	"context"
	"fmt"
	"strings"
)

// Default branch names used by the release workflow.
const (
	DefaultDevelopBranch = "develop"
	DefaultReleasePrefix = "release/"
)

// IntegrationCandidates are probed in order when no integration branch is
// configured.
var IntegrationCandidates = []string{"main", "master"}

// BranchLayout names the long-lived branches of a release-branch workflow.
type BranchLayout struct {
	// Integration is the branch releases are merged into. Empty means
	// auto-detect from IntegrationCandidates.
	Integration string
	// Develop is the branch releases are cut from when it exists.
	Develop string
	// ReleasePrefix prefixes release branch names, e.g. "release/".
	ReleasePrefix string
}

// DefaultBranchLayout returns the conventional main/develop/release layout.
func DefaultBranchLayout() BranchLayout {
	return BranchLayout{
		Develop:       DefaultDevelopBranch,
		ReleasePrefix: DefaultReleasePrefix,
	}
}

// IntegrationBranch returns the configured integration branch, or the first
// existing candidate. It fails with ErrNoIntegrationBranch when none exists.
func (l BranchLayout) IntegrationBranch(ctx context.Context, r BranchReader) (string, error) {
	candidates := IntegrationCandidates
	if l.Integration != "" {
		candidates = []string{l.Integration}
	}

	for _, name := range candidates {
		ok, err := r.BranchExists(ctx, name)
		if err != nil {
			return "", err
		}
		if ok {
			return name, nil
		}
	}

	if l.Integration != "" {
		return "", fmt.Errorf("%w: %s", ErrBranchNotFound, l.Integration)
	}
	return "", ErrNoIntegrationBranch
}

// HasDevelop reports whether the develop branch exists.
func (l BranchLayout) HasDevelop(ctx context.Context, r BranchReader) (bool, error) {
	if l.Develop == "" {
		return false, nil
	}
	return r.BranchExists(ctx, l.Develop)
}

// ReleaseSourceBranch returns the branch a release is cut from: develop when
// it exists, otherwise the integration branch.
func (l BranchLayout) ReleaseSourceBranch(ctx context.Context, r BranchReader) (string, error) {
	ok, err := l.HasDevelop(ctx, r)
	if err != nil {
		return "", err
	}
	if ok {
		return l.Develop, nil
	}
	return l.IntegrationBranch(ctx, r)
}

// ReleaseBranch returns the release branch name for a version.
func (l BranchLayout) ReleaseBranch(version string) string {
	return l.ReleasePrefix + version
}

// IsReleaseBranch reports whether branch follows the release naming scheme.
func (l BranchLayout) IsReleaseBranch(branch string) bool {
	return l.ReleasePrefix != "" && strings.HasPrefix(branch, l.ReleasePrefix) && len(branch) > len(l.ReleasePrefix)
}

// ReleaseVersion extracts the version part of a release branch name.
func (l BranchLayout) ReleaseVersion(branch string) (string, error) {
	if !l.IsReleaseBranch(branch) {
		return "", fmt.Errorf("%w: %s", ErrNotReleaseBranch, branch)
	}
	return strings.TrimPrefix(branch, l.ReleasePrefix), nil
}
