package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	runGoal string
	runTone string
)

var runCmd = &cobra.Command{
	Use:   "run [goal...]",
	Short: "Plan a goal and execute every step",
	Long: `Break the goal into steps and execute them in order. The goal comes from
--goal, then from the positional arguments, and otherwise is read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.TrimSpace(runGoal)
		if goal == "" {
			goal = strings.TrimSpace(strings.Join(args, " "))
		}
		if goal == "" {
			var err error
			goal, err = promptGoal(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if err := a.orchestrator.SetGoal(ctx, goal, runTone); err != nil {
			return err
		}
		printPlan(out, a.orchestrator)
		fmt.Fprintln(out, "\nStarting execution...")

		return a.execute(ctx, out)
	},
}

func promptGoal(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "What should I do?\n> ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read goal: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	runCmd.Flags().StringVar(&runGoal, "goal", "", "the goal for the agent to accomplish")
	runCmd.Flags().StringVar(&runTone, "tone", "", "email tone: professional, friendly or funny (default AGENT_TONE)")
	rootCmd.AddCommand(runCmd)
}
