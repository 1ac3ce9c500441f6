package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	statex "github.com/tanpawarit/agent-sender/agent/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long:  `List every goal recorded in the store with its run id, plan size and the latest status of each step.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer statex.Close(store)

		records, err := store.AllSteps(ctx)
		if err != nil {
			return err
		}

		runs := summarizeRuns(records)
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tSTARTED\tSTEPS\tCOMPLETED\tFAILED\tGOAL")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				r.id, r.started.Local().Format(time.DateTime), r.total, r.completed, r.failed, r.goal)
		}
		return w.Flush()
	},
}

type runSummary struct {
	id        string
	goal      string
	started   time.Time
	total     int
	completed int
	failed    int
}

// summarizeRuns folds step records into one line per goal_set, in the order
// the goals were recorded.
func summarizeRuns(records []contractx.StepRecord) []runSummary {
	var order []string
	runs := map[string]*runSummary{}
	latest := map[string]map[int]contractx.StepStatus{}

	for _, rec := range records {
		switch rec.Kind {
		case contractx.RecordGoalSet:
			if _, ok := runs[rec.RunID]; !ok {
				order = append(order, rec.RunID)
			}
			runs[rec.RunID] = &runSummary{id: rec.RunID, goal: rec.Goal, started: rec.RecordedAt, total: len(rec.Plan)}
		case contractx.RecordStep:
			if rec.Step == nil {
				continue
			}
			if latest[rec.RunID] == nil {
				latest[rec.RunID] = map[int]contractx.StepStatus{}
			}
			latest[rec.RunID][rec.Step.ID] = rec.Step.Status
		}
	}

	out := make([]runSummary, 0, len(order))
	for _, id := range order {
		r := runs[id]
		for _, status := range latest[id] {
			switch status {
			case contractx.StepCompleted:
				r.completed++
			case contractx.StepFailed:
				r.failed++
			}
		}
		out = append(out, *r)
	}
	return out
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
