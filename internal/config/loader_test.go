package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rperrors "github.com/relicta-tech/grm/internal/errors"
)

func memLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return NewLoader().WithFs(fs)
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := memLoader(t, nil).Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, Validate(cfg))
}

func TestLoader_YAMLFile(t *testing.T) {
	l := memLoader(t, map[string]string{
		".grm.yaml": `
changelog:
  file: docs/CHANGES.md
branches:
  integration: trunk
  release_prefix: rel/
remote:
  retry_attempts: 5
  retry_delay: 250ms
release:
  merge_message: "Merge release {{version}}"
  default_bump: patch
`,
	})

	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ".grm.yaml", l.GetConfigPath())
	assert.Equal(t, "docs/CHANGES.md", cfg.Changelog.File)
	assert.Equal(t, "trunk", cfg.Branches.Integration)
	assert.Equal(t, "develop", cfg.Branches.Develop)
	assert.Equal(t, "rel/", cfg.Branches.ReleasePrefix)
	assert.Equal(t, 5, cfg.Remote.RetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Remote.RetryDelay)
	assert.Equal(t, "Merge release 1.2.0", cfg.Release.MergeMessageFor("1.2.0"))
	assert.Equal(t, "patch", cfg.Release.DefaultBump)
	assert.Equal(t, "origin", cfg.Remote.Name)
}

func TestLoader_SearchOrder(t *testing.T) {
	l := memLoader(t, map[string]string{
		"grm.toml":  "[branches]\ndevelop = \"dev\"\n",
		".grm.json": `{"branches": {"develop": "next"}}`,
	})

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "next", cfg.Branches.Develop)
}

func TestLoader_ExplicitPath(t *testing.T) {
	l := memLoader(t, map[string]string{
		"conf/release.toml": "[git]\nremote_timeout = \"2m\"\nuse_cli_fallback = false\n",
	}).WithConfigPath("conf/release.toml")

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Git.RemoteTimeout)
	assert.False(t, cfg.Git.UseCLIFallback)
}

func TestLoader_ExplicitPathMissing(t *testing.T) {
	_, err := memLoader(t, nil).WithConfigPath("missing.yaml").Load()
	require.Error(t, err)
	assert.True(t, rperrors.IsKind(err, rperrors.KindConfig))
}

func TestLoader_MalformedFile(t *testing.T) {
	_, err := memLoader(t, map[string]string{".grm.yaml": "branches: [unclosed"}).Load()
	require.Error(t, err)
	assert.True(t, rperrors.IsKind(err, rperrors.KindConfig))
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("GRM_BRANCHES_DEVELOP", "staging")
	t.Setenv("GRM_REMOTE_PUSH", "false")
	t.Setenv("GRM_REMOTE_RETRY_DELAY", "3s")

	cfg, err := memLoader(t, map[string]string{
		".grm.yaml": "branches:\n  develop: next\n",
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Branches.Develop)
	assert.False(t, cfg.Remote.Push)
	assert.Equal(t, 3*time.Second, cfg.Remote.RetryDelay)
}

func TestLoader_ExpandsMessages(t *testing.T) {
	t.Setenv("GRM_TEST_TEAM", "platform")

	cfg, err := memLoader(t, map[string]string{
		".grm.yaml": "release:\n  tag_message: \"${GRM_TEST_TEAM} release {{version}}\"\n",
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, "platform release 2.0.0", cfg.Release.TagMessageFor("2.0.0"))
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("GRM_TEST_VALUE", "abc123")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"braced", "pre-${GRM_TEST_VALUE}-post", "pre-abc123-post"},
		{"default used", "${GRM_TEST_UNSET:-fallback}", "fallback"},
		{"default ignored", "${GRM_TEST_VALUE:-fallback}", "abc123"},
		{"braced unset", "[${GRM_TEST_UNSET}]", "[]"},
		{"simple", "$GRM_TEST_VALUE", "abc123"},
		{"simple unset kept", "$GRM_TEST_UNSET", "$GRM_TEST_UNSET"},
		{"placeholder untouched", "Finish {{version}}", "Finish {{version}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVar(tt.in))
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := findConfigFile(fs, []string{"."})
	require.Error(t, err)
	assert.True(t, rperrors.IsKind(err, rperrors.KindNotFound))

	require.NoError(t, afero.WriteFile(fs, "nested/grm.yml", []byte("{}"), 0o644))
	path, err := findConfigFile(fs, []string{".", "nested"})
	require.NoError(t, err)
	assert.Equal(t, "nested/grm.yml", path)
}

func TestConfigExists(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, ConfigExists(dir))

	require.NoError(t, WriteConfig(afero.NewOsFs(), DefaultConfig(), dir+"/.grm.yaml"))
	assert.True(t, ConfigExists(dir))

	cfg, err := LoadFromDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
