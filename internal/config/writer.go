package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	rperrors "github.com/relicta-tech/grm/internal/errors"
	"github.com/relicta-tech/grm/internal/fileutil"
)

// Supported config file formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// FormatFromPath returns the config format implied by a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", rperrors.Config("config.FormatFromPath", fmt.Sprintf("unsupported config file extension: %q", filepath.Ext(path)))
	}
}

// toMap converts cfg to nested maps keyed like the config file. Durations
// are written as strings such as "1s" so every format reads them back.
func toMap(cfg *Config) map[string]any {
	return map[string]any{
		"changelog": map[string]any{
			"file":              cfg.Changelog.File,
			"create_if_missing": cfg.Changelog.CreateIfMissing,
			"commit_message":    cfg.Changelog.CommitMessage,
		},
		"branches": map[string]any{
			"integration":    cfg.Branches.Integration,
			"develop":        cfg.Branches.Develop,
			"release_prefix": cfg.Branches.ReleasePrefix,
		},
		"remote": map[string]any{
			"name":           cfg.Remote.Name,
			"push":           cfg.Remote.Push,
			"retry_attempts": cfg.Remote.RetryAttempts,
			"retry_delay":    cfg.Remote.RetryDelay.String(),
		},
		"git": map[string]any{
			"use_cli_fallback": cfg.Git.UseCLIFallback,
			"local_timeout":    cfg.Git.LocalTimeout.String(),
			"remote_timeout":   cfg.Git.RemoteTimeout.String(),
		},
		"release": map[string]any{
			"merge_message":          cfg.Release.MergeMessage,
			"tag_message":            cfg.Release.TagMessage,
			"default_bump":           cfg.Release.DefaultBump,
			"check_version_mismatch": cfg.Release.CheckVersionMismatch,
		},
		"output": map[string]any{
			"color":      cfg.Output.Color,
			"log_format": cfg.Output.LogFormat,
			"log_level":  cfg.Output.LogLevel,
		},
	}
}

// Encode renders cfg in the given format.
func Encode(cfg *Config, format string) ([]byte, error) {
	const op = "config.Encode"

	m := toMap(cfg)

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(m)
	case FormatJSON:
		data, err = json.MarshalIndent(m, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case FormatTOML:
		data, err = toml.Marshal(m)
	default:
		return nil, rperrors.Config(op, fmt.Sprintf("unsupported config format: %q", format))
	}
	if err != nil {
		return nil, rperrors.ConfigWrap(err, op, "failed to encode config")
	}
	return data, nil
}

// WriteConfig writes cfg to path, choosing the format from the extension.
func WriteConfig(fs afero.Fs, cfg *Config, path string) error {
	const op = "config.WriteConfig"

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Encode(cfg, format)
	if err != nil {
		return err
	}

	if err := fileutil.AtomicWriteFile(fs, path, data, 0o644); err != nil {
		return rperrors.IOWrap(err, op, "failed to write "+path)
	}
	return nil
}
