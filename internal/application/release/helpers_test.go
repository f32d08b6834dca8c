package release

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/grm/internal/config"
	"github.com/relicta-tech/grm/internal/infrastructure/persistence"
)

const sampleChangelog = `# Changelog

## Unreleased

- Added export

## 1.0.0 - 2024-01-01

- Initial release
`

var fixedClock = func() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

type testEnv struct {
	svc      *Service
	provider *fakeProvider
	fs       afero.Fs
	cfg      *config.Config
}

func newTestEnv(t *testing.T, p *fakeProvider, changelogText string, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	fs := afero.NewMemMapFs()
	if changelogText != "" {
		require.NoError(t, afero.WriteFile(fs, "CHANGELOG.md", []byte(changelogText), 0o644))
	}

	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}

	store := persistence.NewChangelogStore(fs, cfg.Changelog.File)
	return &testEnv{
		svc:      NewService(p, store, cfg, WithClock(fixedClock)),
		provider: p,
		fs:       fs,
		cfg:      cfg,
	}
}

func (e *testEnv) changelog(t *testing.T) string {
	t.Helper()
	data, err := afero.ReadFile(e.fs, "CHANGELOG.md")
	require.NoError(t, err)
	return string(data)
}

// scriptedConfirm answers known questions and falls back to the default.
type scriptedConfirm struct {
	answers map[string]bool
	asked   []string
}

func (c *scriptedConfirm) confirm(_ context.Context, question string, defaultYes bool) (bool, error) {
	c.asked = append(c.asked, question)
	if answer, ok := c.answers[question]; ok {
		return answer, nil
	}
	return defaultYes, nil
}
