package cli

import (
	"context"
	"os"

	"github.com/relicta-tech/grm/internal/application/release"
	"github.com/relicta-tech/grm/internal/config"
	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
	"github.com/relicta-tech/grm/internal/infrastructure/git"
	"github.com/relicta-tech/grm/internal/infrastructure/persistence"
)

// app bundles the adapters and the release service of one command run.
type app struct {
	root     string
	provider sourcecontrol.Provider
	store    *persistence.ChangelogStore
	service  *release.Service
}

// openRepository opens the repository containing the working directory
// with the adapter settings from cfg.
func openRepository(cfg *config.Config) (*git.Repository, error) {
	return git.Open(
		git.WithPath("."),
		git.WithCLIFallback(cfg.Git.UseCLIFallback),
		git.WithTimeouts(cfg.Git.LocalTimeout, cfg.Git.RemoteTimeout),
		git.WithRetry(cfg.Remote.RetryAttempts, cfg.Remote.RetryDelay),
		git.WithLogger(logger),
	)
}

var newApp = func(ctx context.Context, cfg *config.Config) (*app, error) {
	repo, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}

	store := persistence.NewOSChangelogStore(repo.Root(), cfg.Changelog.File)
	svc := release.NewService(repo, store, cfg,
		release.WithLogger(logger),
		release.WithActivity(spinnerActivity),
	)

	logger.Debug("opened repository", "root", repo.Root(), "changelog", store.Path())
	return &app{root: repo.Root(), provider: repo, store: store, service: svc}, nil
}

// changelogStore returns the configured changelog relative to the
// repository root, or to the working directory outside a repository. The
// root is returned with it.
func changelogStore(cfg *config.Config) (string, *persistence.ChangelogStore) {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	if repo, err := openRepository(cfg); err == nil {
		root = repo.Root()
	}
	return root, persistence.NewOSChangelogStore(root, cfg.Changelog.File)
}
