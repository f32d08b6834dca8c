// Package cli provides the command-line interface for grm.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/relicta-tech/grm/internal/config"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

var (
	// Version information set by main.
	versionInfo struct {
		Version string
		Commit  string
		Date    string
	}

	// Global flags
	cfgFile   string
	workDir   string
	verbose   bool
	noColor   bool
	assumeYes bool
	logLevel  string
	logFormat string

	// Global config
	cfg *config.Config

	// Logger
	logger *log.Logger

	// stdout and stdin of the commands, swapped in tests.
	out io.Writer = os.Stdout
	in  io.Reader = os.Stdin

	// Styles
	styles = struct {
		Title   lipgloss.Style
		Success lipgloss.Style
		Error   lipgloss.Style
		Warning lipgloss.Style
		Info    lipgloss.Style
		Subtle  lipgloss.Style
		Bold    lipgloss.Style
	}{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
	rootCmd.Version = version
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "grm",
	Short: "Git release manager",
	Long: `grm manages releases with release branches and a Keep a Changelog file.

A release starts on a release/X.Y.Z branch cut from develop (or from
main/master when there is no develop branch). Starting a release moves the
Unreleased changelog entries under a dated version header. Finishing merges
the branch into the integration branch, tags it, merges back into develop
and deletes the release branch.

Typical flow:
  grm start --minor   # cut release/1.3.0 and date the changelog
  grm finish          # merge, tag, back-merge, clean up, push`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workDir != "" {
			if err := os.Chdir(workDir); err != nil {
				return rperrors.IOWrap(err, "cli.chdir", "cannot change to "+workDir)
			}
		}
		// init writes the configuration, it must not require one
		if cmd.Name() == "init" || cmd.Name() == "help" || cmd.Name() == "completion" {
			cfg = config.DefaultConfig()
			applyGlobalFlags()
			return configureLogger()
		}
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context for graceful shutdown.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Level and format are configured in initConfig from flags and config.
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})

	rootCmd.SetVersionTemplate("grm {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: .grm.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "run as if grm was started in this directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "accept the default answer of every confirmation")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json, logfmt)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(changelogCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
}

// loadAndValidateConfig loads and validates the configuration. Validation
// warnings are printed and do not fail the command.
func loadAndValidateConfig() error {
	loader := config.NewLoader()

	if cfgFile != "" {
		loader.WithConfigPath(cfgFile)
	}

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	validator := config.NewValidator()
	if err := validator.Validate(cfg); err != nil {
		return err
	}
	for _, w := range validator.Warnings() {
		logger.Warn(w)
	}

	return nil
}

// applyGlobalFlags applies global CLI flags to the configuration.
func applyGlobalFlags() {
	if logLevel != "" {
		cfg.Output.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Output.LogFormat = logFormat
	}
	if noColor {
		cfg.Output.Color = false
	}
	if !cfg.Output.Color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// configureLogger applies format and level to the package logger.
func configureLogger() error {
	switch cfg.Output.LogFormat {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	case "text", "":
		logger.SetFormatter(log.TextFormatter)
	default:
		return rperrors.Config("cli.configureLogger", fmt.Sprintf("unknown log format %q", cfg.Output.LogFormat))
	}

	level := log.InfoLevel
	if cfg.Output.LogLevel != "" {
		parsed, err := log.ParseLevel(cfg.Output.LogLevel)
		if err != nil {
			return rperrors.ConfigWrap(err, "cli.configureLogger", "invalid log level")
		}
		level = parsed
	}
	if verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	return nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if err := loadAndValidateConfig(); err != nil {
		return err
	}
	applyGlobalFlags()
	return configureLogger()
}

// ErrorMessage renders err for the terminal.
func ErrorMessage(err error) string {
	var e *rperrors.Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return err.Error()
}

// IsCanceled reports whether err ends the program as an interrupt.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || rperrors.IsKind(err, rperrors.KindCanceled)
}

// Helper functions for output

func printSuccess(msg string) {
	fmt.Fprintln(out, styles.Success.Render("✓ "+msg))
}

func printError(msg string) {
	fmt.Fprintln(out, styles.Error.Render("✗ "+msg))
}

func printWarning(msg string) {
	fmt.Fprintln(out, styles.Warning.Render("⚠ "+msg))
}

func printInfo(msg string) {
	fmt.Fprintln(out, styles.Info.Render("ℹ "+msg))
}

func printTitle(msg string) {
	fmt.Fprintln(out, styles.Title.Render(msg))
}

func printSubtle(msg string) {
	fmt.Fprintln(out, styles.Subtle.Render(msg))
}

func printBullets(items []string) {
	for _, item := range items {
		fmt.Fprintln(out, "  • "+item)
	}
}
