package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/grm/internal/application/release"
	"github.com/relicta-tech/grm/internal/domain/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the release state of the repository",
	Long: `Display the current branch, the working tree state, the latest version
and the pending changelog entries.

Examples:
  grm status
  grm status -C path/to/repo`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	st, err := a.service.Status(ctx)
	if err != nil {
		return err
	}

	printStatus(st, a.store.Name())
	return nil
}

func printStatus(st *release.Status, changelogName string) {
	printTitle("Release Status")
	fmt.Fprintln(out)

	branch := st.Branch
	if st.Detached {
		branch = "(detached HEAD)"
	}
	printField("Branch", branch)

	tree := styles.Success.Render("clean")
	if !st.Clean {
		tree = styles.Warning.Render("uncommitted changes")
	}
	printField("Working tree", tree)

	remote := "none"
	if st.HasRemote {
		remote = "configured"
	}
	printField("Remote", remote)

	integration := st.Integration
	if integration == "" {
		integration = styles.Warning.Render("not found")
	}
	printField("Integration", integration)
	printField("Develop", fmt.Sprintf("%t", st.HasDevelop))

	if latest, ok := st.Catalog.Latest(); ok {
		printField("Latest version", latest.String())
	} else {
		printField("Latest version", "none")
	}
	for _, bump := range version.AllBumpTypes {
		printField("Next "+string(bump), st.Next[bump])
	}
	fmt.Fprintln(out)

	if !st.ChangelogExists {
		printWarning(fmt.Sprintf("%s does not exist", changelogName))
	} else {
		printInfo(fmt.Sprintf("%d unreleased entries in %s", len(st.Unreleased), changelogName))
		if len(st.Issues) > 0 {
			printWarning("Changelog issues:")
			printBullets(st.Issues)
		}
	}

	fmt.Fprintln(out)
	switch {
	case st.InRelease():
		printInfo(fmt.Sprintf("Release %s in progress. Run 'grm finish' when ready.", st.ReleaseVersion))
	case !st.Clean:
		printSubtle("Commit or stash your changes before starting a release.")
	default:
		printSubtle("Run 'grm start' to create a release branch.")
	}
}

func printField(label, value string) {
	fmt.Fprintf(out, "  %s %s\n", styles.Subtle.Render(fmt.Sprintf("%-15s", label+":")), value)
}
