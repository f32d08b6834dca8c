package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/grm/internal/domain/version"
	rperrors "github.com/relicta-tech/grm/internal/errors"
)

// versionCmd summarizes the versions found in the repository's tags. The
// build version of grm itself is printed by --version.
var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"versions"},
	Short:   "Summarize the released versions",
	Long: `Read the repository tags and print the latest version, the number of
versions and the next minor and patch versions.

Tags such as 1.2.3 and v1.2.3 are versions; other tags are ignored.
With --list every version is printed, oldest first.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

var versionList bool

func init() {
	versionCmd.Flags().BoolVarP(&versionList, "list", "l", false, "list every version, oldest first")
}

func runVersion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	tags, err := a.provider.Tags(ctx)
	if err != nil {
		return rperrors.GitWrap(err, "cli.version", "cannot list tags")
	}

	catalog := version.NewCatalog(tags)
	if versionList {
		for _, v := range catalog.Versions() {
			fmt.Fprintln(out, v)
		}
		return nil
	}
	fmt.Fprintln(out, catalog.Summary())
	if verbose && versionInfo.Version != "" {
		printSubtle(fmt.Sprintf("grm %s (commit %s, built %s)", versionInfo.Version, versionInfo.Commit, versionInfo.Date))
	}
	return nil
}
