// Package config provides configuration management for grm.
package config

import (
	"strings"
	"time"

	"github.com/relicta-tech/grm/internal/domain/changelog"
	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
	"github.com/relicta-tech/grm/internal/domain/version"
)

// VersionPlaceholder is replaced by the release version in messages.
const VersionPlaceholder = "{{version}}"

// Config is the root configuration for grm.
type Config struct {
	// Changelog configures the changelog file.
	Changelog ChangelogConfig `mapstructure:"changelog" json:"changelog"`
	// Branches names the long-lived branches of the workflow.
	Branches BranchesConfig `mapstructure:"branches" json:"branches"`
	// Remote configures publishing to the remote.
	Remote RemoteConfig `mapstructure:"remote" json:"remote"`
	// Git configures the git adapter.
	Git GitConfig `mapstructure:"git" json:"git"`
	// Release configures release creation and finishing.
	Release ReleaseConfig `mapstructure:"release" json:"release"`
	// Output configures terminal output and logging.
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// ChangelogConfig configures the changelog file.
type ChangelogConfig struct {
	// File is the changelog path relative to the repository root.
	File string `mapstructure:"file" json:"file"`
	// CreateIfMissing offers to create the template when the file is absent.
	CreateIfMissing bool `mapstructure:"create_if_missing" json:"create_if_missing"`
	// CommitMessage is the message of the changelog commit on the release branch.
	CommitMessage string `mapstructure:"commit_message" json:"commit_message"`
}

// BranchesConfig names the long-lived branches of the workflow.
type BranchesConfig struct {
	// Integration is the branch releases are merged into. Empty auto-detects main/master.
	Integration string `mapstructure:"integration" json:"integration"`
	// Develop is the branch releases are cut from when it exists.
	Develop string `mapstructure:"develop" json:"develop"`
	// ReleasePrefix prefixes release branch names.
	ReleasePrefix string `mapstructure:"release_prefix" json:"release_prefix"`
}

// Layout converts the configuration into a branch layout.
func (b BranchesConfig) Layout() sourcecontrol.BranchLayout {
	return sourcecontrol.BranchLayout{
		Integration:   b.Integration,
		Develop:       b.Develop,
		ReleasePrefix: b.ReleasePrefix,
	}
}

// RemoteConfig configures publishing to the remote.
type RemoteConfig struct {
	// Name is the remote to publish to (default: "origin").
	Name string `mapstructure:"name" json:"name"`
	// Push publishes branches and tags after start and finish.
	Push bool `mapstructure:"push" json:"push"`
	// RetryAttempts is the number of attempts for remote operations.
	RetryAttempts int `mapstructure:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial delay between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" json:"retry_delay"`
}

// GitConfig configures the git adapter.
type GitConfig struct {
	// UseCLIFallback lets the git executable handle merge commits and
	// remote operations go-git fails on, e.g. credential helpers.
	UseCLIFallback bool `mapstructure:"use_cli_fallback" json:"use_cli_fallback"`
	// LocalTimeout bounds local operations.
	LocalTimeout time.Duration `mapstructure:"local_timeout" json:"local_timeout"`
	// RemoteTimeout bounds each remote attempt.
	RemoteTimeout time.Duration `mapstructure:"remote_timeout" json:"remote_timeout"`
}

// ReleaseConfig configures release creation and finishing.
type ReleaseConfig struct {
	// MergeMessage is the merge commit message; {{version}} is substituted.
	MergeMessage string `mapstructure:"merge_message" json:"merge_message"`
	// TagMessage annotates the release tag; empty creates a lightweight tag.
	TagMessage string `mapstructure:"tag_message" json:"tag_message"`
	// DefaultBump is used when no bump flag is given and no picker runs.
	DefaultBump string `mapstructure:"default_bump" json:"default_bump"`
	// CheckVersionMismatch compares the newest changelog section with the newest tag.
	CheckVersionMismatch bool `mapstructure:"check_version_mismatch" json:"check_version_mismatch"`
}

// MergeMessageFor renders the merge message for a release.
func (r ReleaseConfig) MergeMessageFor(v string) string {
	return strings.ReplaceAll(r.MergeMessage, VersionPlaceholder, v)
}

// TagMessageFor renders the tag message for a release.
func (r ReleaseConfig) TagMessageFor(v string) string {
	return strings.ReplaceAll(r.TagMessage, VersionPlaceholder, v)
}

// Bump returns the configured default bump, falling back to minor.
func (r ReleaseConfig) Bump() version.BumpType {
	b, err := version.ParseBumpType(r.DefaultBump)
	if err != nil {
		return version.BumpMinor
	}
	return b
}

// OutputConfig configures terminal output and logging.
type OutputConfig struct {
	// Color enables colored output.
	Color bool `mapstructure:"color" json:"color"`
	// LogFormat is text, json or logfmt.
	LogFormat string `mapstructure:"log_format" json:"log_format"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Changelog: ChangelogConfig{
			File:            changelog.DefaultFileName,
			CreateIfMissing: true,
			CommitMessage:   "Changelog",
		},
		Branches: BranchesConfig{
			Develop:       sourcecontrol.DefaultDevelopBranch,
			ReleasePrefix: sourcecontrol.DefaultReleasePrefix,
		},
		Remote: RemoteConfig{
			Name:          "origin",
			Push:          true,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Git: GitConfig{
			UseCLIFallback: true,
			LocalTimeout:   30 * time.Second,
			RemoteTimeout:  60 * time.Second,
		},
		Release: ReleaseConfig{
			MergeMessage:         "Finish " + VersionPlaceholder,
			DefaultBump:          string(version.BumpMinor),
			CheckVersionMismatch: true,
		},
		Output: OutputConfig{
			Color:     true,
			LogFormat: "text",
			LogLevel:  "info",
		},
	}
}

// ConfigFileNames to search for, in order.
var ConfigFileNames = []string{
	".grm",
	"grm",
}

// ConfigFileExtensions supported by Viper.
var ConfigFileExtensions = []string{
	"yaml",
	"yml",
	"json",
	"toml",
}
