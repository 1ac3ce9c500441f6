package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

var errInterrupted = errors.New("interrupted before completion")

// Resume rebuilds a run from its persisted records so Run can finish the
// steps still pending. The latest snapshot of each step wins; a step left
// in_progress is recorded as failed. Working sets are reloaded lazily.
func (o *Orchestrator) Resume(ctx context.Context, runID string) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("%w: run id is empty", contractx.ErrRunNotFound)
	}

	records, err := o.store.AllSteps(ctx)
	if err != nil {
		return persistErr("load step records", err)
	}

	var (
		plan    contractx.StepRecord
		found   bool
		latest  = map[int]contractx.Step{}
		touched = 0
	)
	for _, rec := range records {
		if rec.RunID != runID {
			continue
		}
		switch rec.Kind {
		case contractx.RecordGoalSet:
			plan, found = rec, true
		case contractx.RecordStep:
			if rec.Step != nil {
				latest[rec.Step.ID] = *rec.Step
				touched++
			}
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", contractx.ErrRunNotFound, runID)
	}

	steps := make([]contractx.Step, len(plan.Plan))
	copy(steps, plan.Plan)
	for i := range steps {
		if snap, ok := latest[steps[i].ID]; ok {
			steps[i] = snap
		}
	}

	o.runID = runID
	o.goal = plan.Goal
	o.tone = o.defaultTone
	if t := strings.TrimSpace(plan.Tone); t != "" {
		o.tone = t
	}
	o.steps = steps
	o.leads = nil
	o.emails = nil

	for i := range o.steps {
		if o.steps[i].Status != contractx.StepInProgress {
			continue
		}
		failStep(&o.steps[i], errInterrupted)
		if err := o.saveStep(ctx, &o.steps[i]); err != nil {
			return err
		}
	}

	p := o.Progress()
	o.log.Info().
		Str("run_id", runID).
		Int("records", touched).
		Int("pending", p.PendingSteps).
		Msg("run resumed")
	return nil
}
