// Package release provides the start, finish and status use cases of the
// release-branch workflow.
package release

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/relicta-tech/grm/internal/config"
	"github.com/relicta-tech/grm/internal/domain/changelog"
	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
	"github.com/relicta-tech/grm/internal/domain/version"
)

// ChangelogStore is the changelog file as seen by the workflows.
type ChangelogStore interface {
	Path() string
	Name() string
	Exists(ctx context.Context) (bool, error)
	Read(ctx context.Context) (string, error)
	CreateInitial(ctx context.Context) error
	Validate(ctx context.Context) changelog.Report
	Unreleased(ctx context.Context) ([]string, error)
	MoveUnreleased(ctx context.Context, version string, opts ...changelog.MoveOption) (string, error)
}

// ConfirmFunc asks the user a yes/no question. defaultYes is the answer
// used when the user just presses enter.
type ConfirmFunc func(ctx context.Context, question string, defaultYes bool) (bool, error)

// ChooseBumpFunc lets the user pick the bump type for the next release.
type ChooseBumpFunc func(ctx context.Context, catalog *version.Catalog, notes []string) (version.BumpType, error)

// ActivityFunc is called before a slow remote operation starts. The
// returned function is called when it ends.
type ActivityFunc func(description string) (stop func())

// Service runs the release workflows against a source-control provider and
// a changelog store.
type Service struct {
	provider sourcecontrol.Provider
	store    ChangelogStore
	cfg      *config.Config
	layout   sourcecontrol.BranchLayout
	logger   *log.Logger
	clock    func() time.Time
	newID    func() string
	activity ActivityFunc
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used to date new changelog sections.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithActivity sets the hook wrapped around remote operations.
func WithActivity(fn ActivityFunc) Option {
	return func(s *Service) {
		s.activity = fn
	}
}

// NewService creates a release service. A nil cfg uses the defaults.
func NewService(provider sourcecontrol.Provider, store ChangelogStore, cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Service{
		provider: provider,
		store:    store,
		cfg:      cfg,
		layout:   cfg.Branches.Layout(),
		logger:   log.New(io.Discard),
		clock:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// confirm asks fn. A nil fn takes every question's default answer, so an
// unattended run never proceeds past a question that defaults to no.
func confirm(ctx context.Context, fn ConfirmFunc, question string, defaultYes bool) (bool, error) {
	if fn == nil {
		return defaultYes, nil
	}
	return fn(ctx, question, defaultYes)
}

// remote runs a remote operation inside the activity hook.
func (s *Service) remote(description string, fn func() error) error {
	if s.activity != nil {
		stop := s.activity(description)
		defer stop()
	}
	return fn()
}

func (s *Service) remoteName() string {
	return s.cfg.Remote.Name
}

// publishes reports whether the workflow may write to the remote.
func (s *Service) publishes(hasRemote bool) bool {
	return hasRemote && s.cfg.Remote.Push
}

// warnf logs a warning as it happens and records it for the result summary.
func (s *Service) warnf(list *[]string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.logger.Warn(msg)
	*list = append(*list, msg)
}
