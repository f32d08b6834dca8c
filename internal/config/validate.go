package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/relicta-tech/grm/internal/domain/version"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

var (
	validLogFormats = []string{"text", "json", "logfmt"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
)

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}

	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (e *ValidationError) HasWarnings() bool {
	return len(e.Warnings) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validator validates configuration.
type Validator struct {
	errors *ValidationError
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: &ValidationError{},
	}
}

// Validate validates the configuration. Warnings never fail validation;
// read them with Warnings.
func (v *Validator) Validate(cfg *Config) error {
	v.validateChangelog(cfg.Changelog)
	v.validateBranches(cfg.Branches)
	v.validateRemote(cfg.Remote)
	v.validateGit(cfg.Git)
	v.validateRelease(cfg.Release)
	v.validateOutput(cfg.Output)

	if v.errors.HasErrors() {
		return rperrors.Wrap(v.errors, rperrors.KindValidation, "config.Validate", "invalid configuration")
	}
	return nil
}

// Warnings returns the warnings collected by the last Validate call.
func (v *Validator) Warnings() []string {
	return slices.Clone(v.errors.Warnings)
}

func (v *Validator) validateChangelog(cfg ChangelogConfig) {
	if strings.TrimSpace(cfg.File) == "" {
		v.errors.Addf("changelog.file: must not be empty")
	}
	if strings.TrimSpace(cfg.CommitMessage) == "" {
		v.errors.Addf("changelog.commit_message: must not be empty")
	}
}

func (v *Validator) validateBranches(cfg BranchesConfig) {
	if cfg.ReleasePrefix == "" {
		v.errors.Addf("branches.release_prefix: must not be empty")
	} else if !strings.HasSuffix(cfg.ReleasePrefix, "/") {
		v.errors.Addf("branches.release_prefix: must end with '/', got %q", cfg.ReleasePrefix)
	}

	if cfg.Integration != "" && cfg.Integration == cfg.Develop {
		v.errors.Addf("branches: integration and develop must differ, both are %q", cfg.Integration)
	}
	if cfg.Develop == "" {
		v.errors.Warnf("branches.develop: empty, releases are always cut from the integration branch")
	}
}

func (v *Validator) validateRemote(cfg RemoteConfig) {
	if strings.TrimSpace(cfg.Name) == "" {
		v.errors.Addf("remote.name: must not be empty")
	}
	if cfg.RetryAttempts < 1 {
		v.errors.Addf("remote.retry_attempts: must be at least 1, got %d", cfg.RetryAttempts)
	}
	if cfg.RetryDelay < 0 {
		v.errors.Addf("remote.retry_delay: must not be negative, got %s", cfg.RetryDelay)
	}
}

func (v *Validator) validateGit(cfg GitConfig) {
	if cfg.LocalTimeout <= 0 {
		v.errors.Addf("git.local_timeout: must be positive, got %s", cfg.LocalTimeout)
	}
	if cfg.RemoteTimeout <= 0 {
		v.errors.Addf("git.remote_timeout: must be positive, got %s", cfg.RemoteTimeout)
	}
	if !cfg.UseCLIFallback {
		v.errors.Warnf("git.use_cli_fallback: disabled, finishing a release needs merge commits and will fail")
	}
}

func (v *Validator) validateRelease(cfg ReleaseConfig) {
	if _, err := version.ParseBumpType(cfg.DefaultBump); err != nil {
		v.errors.Addf("release.default_bump: must be one of %v, got %q", version.AllBumpTypes, cfg.DefaultBump)
	}
	if !strings.Contains(cfg.MergeMessage, VersionPlaceholder) {
		v.errors.Warnf("release.merge_message: does not contain %s", VersionPlaceholder)
	}
}

func (v *Validator) validateOutput(cfg OutputConfig) {
	if !slices.Contains(validLogFormats, cfg.LogFormat) {
		v.errors.Addf("output.log_format: must be one of %v, got %q", validLogFormats, cfg.LogFormat)
	}
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		v.errors.Addf("output.log_level: must be one of %v, got %q", validLogLevels, cfg.LogLevel)
	}
}

// Validate is a convenience function to validate configuration.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
