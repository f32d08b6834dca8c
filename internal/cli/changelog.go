package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/grm/internal/domain/changelog"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Inspect the changelog",
}

var changelogExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the unreleased changelog entries",
	Args:  cobra.NoArgs,
	RunE:  runChangelogExtract,
}

var changelogVersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the released versions in the changelog",
	Args:  cobra.NoArgs,
	RunE:  runChangelogVersions,
}

func init() {
	changelogCmd.AddCommand(changelogExtractCmd)
	changelogCmd.AddCommand(changelogVersionsCmd)
}

func runChangelogExtract(cmd *cobra.Command, args []string) error {
	_, store := changelogStore(cfg)

	lines, err := store.Unreleased(cmd.Context())
	if err != nil {
		if errors.Is(err, changelog.ErrSectionNotFound) {
			return fmt.Errorf("%s: %w", store.Name(), err)
		}
		return err
	}

	if len(lines) == 0 {
		printInfo("No unreleased changes")
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}

func runChangelogVersions(cmd *cobra.Command, args []string) error {
	_, store := changelogStore(cfg)

	sections, err := store.VersionSections(cmd.Context())
	if err != nil {
		return err
	}

	if len(sections) == 0 {
		printInfo(fmt.Sprintf("No released versions in %s", store.Name()))
		return nil
	}
	for _, s := range sections {
		fmt.Fprintf(out, "%s  %s\n", styles.Bold.Render(s.Version), styles.Subtle.Render(s.Date))
	}
	return nil
}
