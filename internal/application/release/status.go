package release

import (
	"context"
	"errors"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/relicta-tech/grm/internal/domain/changelog"
	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
	"github.com/relicta-tech/grm/internal/domain/version"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

// Status is a read-only snapshot of the repository's release state.
type Status struct {
	Branch   string
	Detached bool
	Clean    bool
	// HasRemote is set when at least one remote is configured.
	HasRemote   bool
	Integration string
	HasDevelop  bool
	// ReleaseVersion is set when the current branch is a release branch
	// naming a valid version.
	ReleaseVersion string
	Catalog        *version.Catalog
	// Next maps each bump type to the version it would produce.
	Next            map[version.BumpType]string
	ChangelogExists bool
	Unreleased      []string
	Issues          []string
}

// InRelease reports whether the current branch is a release branch.
func (st *Status) InRelease() bool {
	return st.ReleaseVersion != ""
}

// Status gathers the repository's release state. Independent lookups run
// in parallel.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	const op = "release.Status"

	st := &Status{Next: make(map[version.BumpType]string, len(version.AllBumpTypes))}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		branch, err := s.provider.CurrentBranch(gctx)
		if errors.Is(err, sourcecontrol.ErrDetachedHead) {
			st.Detached = true
			return nil
		}
		if err != nil {
			return rperrors.GitWrap(err, op, "cannot determine current branch")
		}
		st.Branch = branch
		if v, err := s.layout.ReleaseVersion(branch); err == nil {
			if _, err := semver.StrictNewVersion(v); err == nil {
				st.ReleaseVersion = v
			}
		}
		return nil
	})

	g.Go(func() error {
		clean, err := s.provider.IsClean(gctx)
		if err != nil {
			return rperrors.GitWrap(err, op, "cannot inspect working tree")
		}
		st.Clean = clean
		return nil
	})

	g.Go(func() error {
		ok, err := s.provider.HasRemote(gctx)
		if err != nil {
			return rperrors.GitWrap(err, op, "cannot list remotes")
		}
		st.HasRemote = ok
		return nil
	})

	g.Go(func() error {
		integration, err := s.layout.IntegrationBranch(gctx, s.provider)
		if err != nil && !errors.Is(err, sourcecontrol.ErrNoIntegrationBranch) && !errors.Is(err, sourcecontrol.ErrBranchNotFound) {
			return rperrors.GitWrap(err, op, "cannot determine integration branch")
		}
		st.Integration = integration

		ok, err := s.layout.HasDevelop(gctx, s.provider)
		if err != nil {
			return rperrors.GitWrap(err, op, "cannot look up develop branch")
		}
		st.HasDevelop = ok
		return nil
	})

	g.Go(func() error {
		tags, err := s.provider.Tags(gctx)
		if err != nil {
			return rperrors.GitWrap(err, op, "cannot list tags")
		}
		st.Catalog = version.NewCatalog(tags)
		for _, bump := range version.AllBumpTypes {
			st.Next[bump] = st.Catalog.MustSuggest(bump).String()
		}
		return nil
	})

	g.Go(func() error {
		exists, err := s.store.Exists(gctx)
		if err != nil {
			return err
		}
		st.ChangelogExists = exists

		report := s.store.Validate(gctx)
		st.Issues = report.Issues()
		if !exists {
			return nil
		}

		notes, err := s.store.Unreleased(gctx)
		if err != nil && !errors.Is(err, changelog.ErrSectionNotFound) {
			return err
		}
		st.Unreleased = notes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}
