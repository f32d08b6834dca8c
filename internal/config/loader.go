package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	rperrors "github.com/relicta-tech/grm/internal/errors"
	"github.com/relicta-tech/grm/internal/fileutil"
)

// EnvPrefix prefixes environment overrides, e.g. GRM_BRANCHES_INTEGRATION.
const EnvPrefix = "GRM"

var (
	// envVarPattern matches ${VAR} or ${VAR:-default} syntax
	envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)
	// simpleEnvVarPattern matches $VAR syntax
	simpleEnvVarPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Loader handles configuration loading and merging.
type Loader struct {
	v           *viper.Viper
	fs          afero.Fs
	configPath  string
	searchPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:           v,
		fs:          afero.NewOsFs(),
		searchPaths: []string{"."},
	}
}

// WithConfigPath sets an explicit config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths adds directories to search for config files.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = append(l.searchPaths, paths...)
	return l
}

// WithFs sets the filesystem config files are read from.
func (l *Loader) WithFs(fs afero.Fs) *Loader {
	l.fs = fs
	l.v.SetFs(fs)
	return l
}

// Load loads the configuration: defaults, then the config file, then
// GRM_* environment variables.
func (l *Loader) Load() (*Config, error) {
	const op = "config.Load"

	l.setDefaults()

	if err := l.loadConfigFile(); err != nil {
		return nil, rperrors.ConfigWrap(err, op, "failed to load config file")
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, rperrors.ConfigWrap(err, op, "failed to unmarshal config")
	}

	expandEnvVars(cfg)

	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even
// without a config file.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("changelog.file", defaults.Changelog.File)
	l.v.SetDefault("changelog.create_if_missing", defaults.Changelog.CreateIfMissing)
	l.v.SetDefault("changelog.commit_message", defaults.Changelog.CommitMessage)

	l.v.SetDefault("branches.integration", defaults.Branches.Integration)
	l.v.SetDefault("branches.develop", defaults.Branches.Develop)
	l.v.SetDefault("branches.release_prefix", defaults.Branches.ReleasePrefix)

	l.v.SetDefault("remote.name", defaults.Remote.Name)
	l.v.SetDefault("remote.push", defaults.Remote.Push)
	l.v.SetDefault("remote.retry_attempts", defaults.Remote.RetryAttempts)
	l.v.SetDefault("remote.retry_delay", defaults.Remote.RetryDelay)

	l.v.SetDefault("git.use_cli_fallback", defaults.Git.UseCLIFallback)
	l.v.SetDefault("git.local_timeout", defaults.Git.LocalTimeout)
	l.v.SetDefault("git.remote_timeout", defaults.Git.RemoteTimeout)

	l.v.SetDefault("release.merge_message", defaults.Release.MergeMessage)
	l.v.SetDefault("release.tag_message", defaults.Release.TagMessage)
	l.v.SetDefault("release.default_bump", defaults.Release.DefaultBump)
	l.v.SetDefault("release.check_version_mismatch", defaults.Release.CheckVersionMismatch)

	l.v.SetDefault("output.color", defaults.Output.Color)
	l.v.SetDefault("output.log_format", defaults.Output.LogFormat)
	l.v.SetDefault("output.log_level", defaults.Output.LogLevel)
}

// loadConfigFile loads the configuration file.
func (l *Loader) loadConfigFile() error {
	// If explicit path provided, use it
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", l.configPath, err)
		}
		return nil
	}

	configFile, err := findConfigFile(l.fs, l.searchPaths)
	if err != nil {
		// No config file found - this is OK, we use defaults
		return nil
	}

	l.v.SetConfigFile(configFile)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", configFile, err)
	}
	return nil
}

// expandEnvVars expands environment variables in free-form fields.
func expandEnvVars(cfg *Config) {
	cfg.Changelog.CommitMessage = expandEnvVar(cfg.Changelog.CommitMessage)
	cfg.Release.MergeMessage = expandEnvVar(cfg.Release.MergeMessage)
	cfg.Release.TagMessage = expandEnvVar(cfg.Release.TagMessage)
	cfg.Remote.Name = expandEnvVar(cfg.Remote.Name)
}

// expandEnvVar expands environment variables in a string.
// Supports both ${VAR} and $VAR syntax.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultValue := ""
		if len(submatch) > 2 {
			defaultValue = submatch[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})

	// Unset $VAR references are left as written.
	result = simpleEnvVarPattern.ReplaceAllStringFunc(result, func(match string) string {
		if value := os.Getenv(match[1:]); value != "" {
			return value
		}
		return match
	})

	return result
}

// GetConfigPath returns the path to the loaded config file, if any.
func (l *Loader) GetConfigPath() string {
	return l.v.ConfigFileUsed()
}

// LoadFromDirectory loads configuration from a directory.
func LoadFromDirectory(dir string) (*Config, error) {
	return NewLoader().WithSearchPaths(dir).Load()
}

// FindConfigFile searches for a config file and returns its path.
func FindConfigFile(searchPaths ...string) (string, error) {
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}
	return findConfigFile(afero.NewOsFs(), searchPaths)
}

func findConfigFile(fs afero.Fs, searchPaths []string) (string, error) {
	for _, searchPath := range searchPaths {
		for _, name := range ConfigFileNames {
			for _, ext := range ConfigFileExtensions {
				configFile := filepath.Join(searchPath, name+"."+ext)
				if ok, _ := fileutil.Exists(fs, configFile); ok {
					return configFile, nil
				}
			}
		}
	}

	return "", rperrors.NotFound("config.FindConfigFile", "no config file found")
}

// ConfigExists returns true if a config file exists in the given directory.
func ConfigExists(dir string) bool {
	_, err := FindConfigFile(dir)
	return err == nil
}
