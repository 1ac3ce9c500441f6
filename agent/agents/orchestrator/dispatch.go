package orchestrator

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

type unsupportedToolError struct {
	tool contractx.ToolName
}

func (e unsupportedToolError) Error() string {
	return fmt.Sprintf("Tool %s not implemented yet", e.tool)
}

func (e unsupportedToolError) Unwrap() error {
	return contractx.ErrUnsupportedTool
}

// ExecuteStep runs one pending step in place: in_progress is recorded before
// the tool is called and the terminal state after. A tool error fails the
// step and is not returned; a store error fails the step and is returned.
// A failed step keeps no Result; its error comes back as StepResult.Error.
func (o *Orchestrator) ExecuteStep(ctx context.Context, step *contractx.Step) (contractx.StepResult, error) {
	if step == nil {
		return contractx.StepResult{}, fmt.Errorf("%w: step is nil", contractx.ErrValidation)
	}
	if step.Status != contractx.StepPending {
		return contractx.StepResult{}, fmt.Errorf("%w: step %d is %s", contractx.ErrValidation, step.ID, step.Status)
	}

	started := o.now()
	logger := o.log.With().
		Str("run_id", o.runID).
		Int("step_id", step.ID).
		Str("tool", string(step.Tool)).
		Logger()

	step.Status = contractx.StepInProgress
	logger.Info().Str("description", step.Description).Msg("step started")
	if err := o.saveStep(ctx, step); err != nil {
		failStep(step, err)
		o.metrics.ObserveStep(string(step.Tool), string(step.Status), o.now().Sub(started))
		return stepResult(step), err
	}

	result, err := o.dispatch(ctx, step)
	if err != nil {
		failStep(step, err)
		logger.Warn().Err(err).Msg("step failed")
	} else {
		step.Status = contractx.StepCompleted
		step.Result = &result
		step.Error = ""
		logger.Info().Msg("step completed")
	}

	// The terminal state is recorded even when the failure came from the store.
	if saveErr := o.saveStep(ctx, step); saveErr != nil {
		if !errors.Is(err, contractx.ErrPersistence) {
			failStep(step, saveErr)
			err = saveErr
		}
		logger.Error().Err(saveErr).Msg("record final step state")
	}
	o.metrics.ObserveStep(string(step.Tool), string(step.Status), o.now().Sub(started))

	if errors.Is(err, contractx.ErrPersistence) {
		return stepResult(step), err
	}
	return stepResult(step), nil
}

// stepResult is the stored payload of a completed step, or a synthetic
// error payload for a failed one.
func stepResult(step *contractx.Step) contractx.StepResult {
	if step.Status == contractx.StepFailed {
		return contractx.StepResult{Error: step.Error}
	}
	if step.Result == nil {
		return contractx.StepResult{}
	}
	return *step.Result
}

func (o *Orchestrator) dispatch(ctx context.Context, step *contractx.Step) (contractx.StepResult, error) {
	switch step.Tool {
	case contractx.ToolSearch:
		return o.search(ctx, step.Description)
	case contractx.ToolWriteEmail:
		return o.writeEmails(ctx)
	case contractx.ToolSendEmail:
		return o.sendEmails(ctx)
	default:
		return contractx.StepResult{}, unsupportedToolError{tool: step.Tool}
	}
}

func (o *Orchestrator) search(ctx context.Context, query string) (contractx.StepResult, error) {
	leads, err := o.tools.Search(ctx, query)
	if err != nil {
		return contractx.StepResult{}, err
	}
	if leads == nil {
		leads = []contractx.Lead{}
	}
	o.leads = leads
	o.metrics.AddLeads(len(leads))

	if err := o.store.SaveLeads(context.WithoutCancel(ctx), leads); err != nil {
		return contractx.StepResult{}, persistErr("save leads", err)
	}
	return contractx.StepResult{Leads: leads}, nil
}

func (o *Orchestrator) writeEmails(ctx context.Context) (contractx.StepResult, error) {
	leads, err := o.workingLeads(ctx)
	if err != nil {
		return contractx.StepResult{}, err
	}

	emails, err := o.tools.WriteEmails(ctx, leads, o.tone)
	if err != nil {
		return contractx.StepResult{}, err
	}
	if emails == nil {
		emails = []contractx.Email{}
	}
	o.emails = emails

	for _, e := range emails {
		if err := o.store.SaveEmail(context.WithoutCancel(ctx), e); err != nil {
			return contractx.StepResult{}, persistErr("save email", err)
		}
	}
	return contractx.StepResult{Emails: emails}, nil
}

func (o *Orchestrator) sendEmails(ctx context.Context) (contractx.StepResult, error) {
	emails, err := o.workingEmails(ctx)
	if err != nil {
		return contractx.StepResult{}, err
	}

	results, err := o.tools.SendEmails(ctx, emails)
	if err != nil {
		return contractx.StepResult{}, err
	}
	if results == nil {
		results = []contractx.SendResult{}
	}

	for i := range results {
		o.metrics.ObserveSend(string(results[i].Status))
		rec := contractx.StepRecord{
			Kind:       contractx.RecordSendResult,
			RunID:      o.runID,
			SendResult: &results[i],
		}
		if err := o.store.SaveStep(context.WithoutCancel(ctx), rec); err != nil {
			return contractx.StepResult{}, persistErr("save send result", err)
		}
	}
	return contractx.StepResult{SendResults: results}, nil
}

// workingLeads falls back to every persisted lead when this process has not
// searched yet.
func (o *Orchestrator) workingLeads(ctx context.Context) ([]contractx.Lead, error) {
	if len(o.leads) > 0 {
		return o.leads, nil
	}
	leads, err := o.store.AllLeads(ctx)
	if err != nil {
		return nil, persistErr("load leads", err)
	}
	o.log.Info().Str("run_id", o.runID).Int("leads", len(leads)).Msg("recovered leads from store")
	o.leads = leads
	return leads, nil
}

func (o *Orchestrator) workingEmails(ctx context.Context) ([]contractx.Email, error) {
	if len(o.emails) > 0 {
		return o.emails, nil
	}
	emails, err := o.store.AllEmails(ctx)
	if err != nil {
		return nil, persistErr("load emails", err)
	}
	o.log.Info().Str("run_id", o.runID).Int("emails", len(emails)).Msg("recovered emails from store")
	o.emails = emails
	return emails, nil
}

func (o *Orchestrator) saveStep(ctx context.Context, step *contractx.Step) error {
	snapshot := *step
	rec := contractx.StepRecord{
		Kind:  contractx.RecordStep,
		RunID: o.runID,
		Step:  &snapshot,
	}
	if err := o.store.SaveStep(context.WithoutCancel(ctx), rec); err != nil {
		return persistErr(fmt.Sprintf("save step %d", step.ID), err)
	}
	return nil
}

func failStep(step *contractx.Step, err error) {
	step.Status = contractx.StepFailed
	step.Error = err.Error()
	step.Result = nil
}
