package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/relicta-tech/grm/internal/config"
)

var (
	initForce  bool
	initFormat string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a grm configuration",
	Long: `Write a .grm configuration file with the default settings to the
current directory and create the changelog if it does not exist yet.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initFormat, "format", config.FormatYAML, "config file format (yaml, toml, json)")
}

// runInit implements the init command.
func runInit(cmd *cobra.Command, args []string) error {
	existingConfig, _ := config.FindConfigFile(".")
	if existingConfig != "" && !initForce {
		printWarning(fmt.Sprintf("Config file already exists: %s", existingConfig))
		printInfo("Use --force to overwrite")
		return nil
	}

	configFile := ".grm." + initFormat
	if _, err := config.FormatFromPath(configFile); err != nil {
		return err
	}

	printTitle("grm Setup")
	fmt.Fprintln(out)

	defaults := config.DefaultConfig()
	if err := config.WriteConfig(afero.NewOsFs(), defaults, configFile); err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Created %s", configFile))

	_, store := changelogStore(defaults)
	exists, err := store.Exists(cmd.Context())
	if err != nil {
		return err
	}
	if !exists {
		if err := store.CreateInitial(cmd.Context()); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Created %s with initial structure", store.Path()))
	}

	fmt.Fprintln(out)
	printInfo("Next steps:")
	printInfo("  1. Review " + configFile)
	printInfo("  2. Add entries under '## Unreleased' in " + store.Path())
	printInfo("  3. Run: grm start")
	return nil
}
