package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run_id]",
	Short: "Continue the pending steps of a recorded run",
	Long: `Rebuild a run from its recorded steps and execute whatever is still pending.
Steps that were in progress when the previous process stopped are marked failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.orchestrator.Resume(ctx, args[0]); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printPlan(out, a.orchestrator)
		fmt.Fprintln(out, "\nResuming execution...")
		return a.execute(ctx, out)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
