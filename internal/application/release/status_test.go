package release

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/grm/internal/domain/version"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

func TestStatus_Snapshot(t *testing.T) {
	p := newFakeProvider("release/1.1.0", "main", "develop")
	p.tags = []string{"1.0.0", "v0.9.0"}
	p.remote = true
	env := newTestEnv(t, p, sampleChangelog)

	st, err := env.svc.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "release/1.1.0", st.Branch)
	assert.False(t, st.Detached)
	assert.True(t, st.Clean)
	assert.True(t, st.HasRemote)
	assert.Equal(t, "main", st.Integration)
	assert.True(t, st.HasDevelop)
	assert.True(t, st.InRelease())
	assert.Equal(t, "1.1.0", st.ReleaseVersion)
	assert.Equal(t, 2, st.Catalog.Len())
	assert.Equal(t, map[version.BumpType]string{
		version.BumpMinor: "1.1.0",
		version.BumpPatch: "1.0.1",
		version.BumpMajor: "2.0.0",
	}, st.Next)
	assert.True(t, st.ChangelogExists)
	assert.Equal(t, []string{"- Added export"}, st.Unreleased)
	assert.Empty(t, st.Issues)
	assert.Empty(t, p.Calls())
}

func TestStatus_EdgeCases(t *testing.T) {
	t.Run("detached without changelog", func(t *testing.T) {
		p := newFakeProvider("main")
		p.detached = true
		p.dirty = true
		env := newTestEnv(t, p, "")

		st, err := env.svc.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, st.Detached)
		assert.False(t, st.Clean)
		assert.False(t, st.InRelease())
		assert.False(t, st.ChangelogExists)
		assert.Equal(t, []string{"CHANGELOG.md does not exist"}, st.Issues)
		assert.Equal(t, "0.1.0", st.Next[version.BumpMinor])
	})

	t.Run("release branch with invalid version", func(t *testing.T) {
		p := newFakeProvider("release/next", "main")
		env := newTestEnv(t, p, sampleChangelog)

		st, err := env.svc.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "release/next", st.Branch)
		assert.False(t, st.InRelease())
	})

	t.Run("missing unreleased section", func(t *testing.T) {
		p := newFakeProvider("main")
		env := newTestEnv(t, p, "# Changelog\n")

		st, err := env.svc.Status(context.Background())
		require.NoError(t, err)
		assert.Empty(t, st.Unreleased)
		assert.Equal(t, []string{"Missing '## Unreleased' section"}, st.Issues)
	})

	t.Run("no integration branch", func(t *testing.T) {
		p := newFakeProvider("trunk")
		env := newTestEnv(t, p, sampleChangelog)

		st, err := env.svc.Status(context.Background())
		require.NoError(t, err)
		assert.Empty(t, st.Integration)
	})
}

func TestStatus_Error(t *testing.T) {
	p := newFakeProvider("main")
	p.errs["Tags"] = errors.New("corrupt packfile")
	env := newTestEnv(t, p, sampleChangelog)

	_, err := env.svc.Status(context.Background())
	require.Error(t, err)
	assert.True(t, rperrors.IsKind(err, rperrors.KindGit))
}
