package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/grm/internal/application/release"
)

var finishCmd = &cobra.Command{
	Use:     "finish",
	Aliases: []string{"f"},
	Short:   "Finish the current release",
	Long: `Finish the release branch that is checked out.

This command:
  - Merges release/X.Y.Z into main/master (no fast-forward)
  - Tags the merge as X.Y.Z
  - Merges main/master back into develop when it exists
  - Deletes the release branch locally and on the remote
  - Pushes the integration branch, tags and develop
  - Leaves develop (or main/master) checked out`,
	Args: cobra.NoArgs,
	RunE: runFinish,
}

func runFinish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	input := release.FinishInput{}
	if !assumeYes {
		input.Confirm = newPrompter().confirm
	}

	res, err := a.service.Finish(ctx, input)
	if err != nil {
		if errors.Is(err, release.ErrCanceled) {
			printInfo("Release finish cancelled.")
			return nil
		}
		if res != nil && len(res.Steps) > 0 {
			printWarning("Release finish stopped after:")
			printBullets(res.Steps)
		}
		return err
	}

	printFinishSummary(res)
	logger.Debug("release finished", "run_id", res.RunID, "state", res.State)
	return nil
}

func printFinishSummary(res *release.FinishResult) {
	fmt.Fprintln(out)
	printSuccess(fmt.Sprintf("Release %s finished successfully!", res.Version))
	printInfo("Summary:")
	printBullets(res.Steps)
	if len(res.Warnings) > 0 {
		printWarning("Warnings:")
		printBullets(res.Warnings)
	}
}
