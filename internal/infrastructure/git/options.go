package git

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Default timeouts for git operations to prevent hangs on slow/unreachable remotes.
const (
	// DefaultLocalTimeout is the timeout for local git operations.
	DefaultLocalTimeout = 30 * time.Second

	// DefaultRemoteTimeout is the timeout for a single remote attempt.
	DefaultRemoteTimeout = 60 * time.Second
)

// Config configures the repository adapter.
type Config struct {
	// Path is any directory inside the working tree (default: ".").
	Path string
	// UseCLIFallback routes merges and failed remote operations through the
	// git executable. go-git alone cannot create non fast-forward merges and
	// does not consult credential helpers (default: true).
	UseCLIFallback bool
	// LocalTimeout bounds local operations.
	LocalTimeout time.Duration
	// RemoteTimeout bounds each remote attempt.
	RemoteTimeout time.Duration
	// RetryAttempts is the number of attempts for remote operations.
	RetryAttempts int
	// RetryDelay is the initial delay between remote attempts.
	RetryDelay time.Duration
	// AuthorName and AuthorEmail override the identity from git config.
	AuthorName  string
	AuthorEmail string
	// Logger receives debug output. Discarded when nil.
	Logger *log.Logger
	// Runner executes the git binary.
	Runner Runner
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Path:           ".",
		UseCLIFallback: true,
		LocalTimeout:   DefaultLocalTimeout,
		RemoteTimeout:  DefaultRemoteTimeout,
		RetryAttempts:  3,
		RetryDelay:     time.Second,
	}
}

// Option configures the repository adapter.
type Option func(*Config)

// WithPath sets the directory the repository is discovered from.
func WithPath(path string) Option {
	return func(c *Config) {
		c.Path = path
	}
}

// WithCLIFallback enables or disables the git executable fallback.
func WithCLIFallback(enabled bool) Option {
	return func(c *Config) {
		c.UseCLIFallback = enabled
	}
}

// WithTimeouts sets the local and remote operation timeouts.
func WithTimeouts(local, remote time.Duration) Option {
	return func(c *Config) {
		c.LocalTimeout = local
		c.RemoteTimeout = remote
	}
}

// WithRetry sets the attempt count and initial delay for remote operations.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		c.RetryAttempts = attempts
		c.RetryDelay = delay
	}
}

// WithAuthor sets the identity used for commits and annotated tags.
func WithAuthor(name, email string) Option {
	return func(c *Config) {
		c.AuthorName = name
		c.AuthorEmail = email
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRunner replaces the git executable runner.
func WithRunner(runner Runner) Option {
	return func(c *Config) {
		c.Runner = runner
	}
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard)
}
