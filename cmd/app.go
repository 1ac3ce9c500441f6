package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/agent-sender/agent/agents/orchestrator"
	plannerx "github.com/tanpawarit/agent-sender/agent/agents/planner"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	llmx "github.com/tanpawarit/agent-sender/agent/llm"
	statex "github.com/tanpawarit/agent-sender/agent/state"
	toolx "github.com/tanpawarit/agent-sender/agent/tool"
	configx "github.com/tanpawarit/agent-sender/pkg/config"
	metricsx "github.com/tanpawarit/agent-sender/pkg/metrics"
	qstashx "github.com/tanpawarit/agent-sender/pkg/qstash"
)

// app is everything one command invocation needs, built from configuration.
type app struct {
	orchestrator *orchestratorx.Orchestrator
	store        contractx.Store
	metrics      *metricsx.Recorder
	metricsCfg   metricsx.Config
	notifier     *qstashx.Client
}

type runEvent struct {
	Event    string             `json:"event"`
	Progress contractx.Progress `json:"progress"`
	Steps    []contractx.Step   `json:"steps"`
}

func openStore(ctx context.Context) (contractx.Store, error) {
	storeCfg, err := configx.New[statex.Config]("STORE")
	if err != nil {
		return nil, err
	}
	return statex.Open(ctx, *storeCfg)
}

func newApp(ctx context.Context) (*app, error) {
	agentCfg, err := configx.New[orchestratorx.Config]("AGENT")
	if err != nil {
		return nil, err
	}
	plannerCfg, err := configx.New[plannerx.Config]("PLANNER")
	if err != nil {
		return nil, err
	}
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, err
	}
	toolCfg, err := configx.New[toolx.Config]("TOOLS")
	if err != nil {
		return nil, err
	}
	smtpCfg, err := configx.New[toolx.SMTPConfig]("EMAIL")
	if err != nil {
		return nil, err
	}
	metricsCfg, err := configx.New[metricsx.Config]("METRICS")
	if err != nil {
		return nil, err
	}
	qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}

	planner, err := plannerx.NewFromConfig(ctx, *plannerCfg, *llmCfg)
	if err != nil {
		return nil, fmt.Errorf("build planner: %w", err)
	}
	tools, err := toolx.Build(*toolCfg, *smtpCfg, *llmCfg)
	if err != nil {
		return nil, fmt.Errorf("build tools: %w", err)
	}

	var notifier *qstashx.Client
	if qstashCfg.Enabled() {
		notifier, err = qstashx.NewClient(*qstashCfg)
		if err != nil {
			return nil, fmt.Errorf("build qstash client: %w", err)
		}
	}

	store, err := openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	recorder := metricsx.NewRecorder()
	orch, err := orchestratorx.New(planner, tools, store, *agentCfg, orchestratorx.WithMetrics(recorder))
	if err != nil {
		_ = statex.Close(store)
		return nil, err
	}

	return &app{
		orchestrator: orch,
		store:        store,
		metrics:      recorder,
		metricsCfg:   *metricsCfg,
		notifier:     notifier,
	}, nil
}

func (a *app) Close() error {
	return statex.Close(a.store)
}

// execute runs the pending steps, prints the report and publishes the
// outcome. Step failures only show up in the report.
func (a *app) execute(ctx context.Context, out io.Writer) error {
	_, runErr := a.orchestrator.Run(ctx)

	fmt.Fprintln(out)
	printSteps(out, a.orchestrator.Steps())
	printProgress(out, a.orchestrator.Progress())

	a.publish(context.WithoutCancel(ctx))
	return runErr
}

func (a *app) publish(ctx context.Context) {
	runID := a.orchestrator.RunID()
	if err := a.metrics.Push(ctx, a.metricsCfg, runID); err != nil && !errors.Is(err, metricsx.ErrPushDisabled) {
		log.Warn().Err(err).Str("run_id", runID).Msg("push metrics")
	}

	if a.notifier == nil {
		return
	}
	event := runEvent{
		Event:    "run.finished",
		Progress: a.orchestrator.Progress(),
		Steps:    a.orchestrator.Steps(),
	}
	id, err := a.notifier.Publish(ctx, event)
	if err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("publish run event")
		return
	}
	log.Debug().Str("run_id", runID).Str("message_id", id).Msg("run event published")
}

func printPlan(out io.Writer, o *orchestratorx.Orchestrator) {
	fmt.Fprintf(out, "\nSetting goal: %s\n", o.Goal())
	fmt.Fprintf(out, "Run ID: %s\n", o.RunID())
	fmt.Fprintln(out, "Plan:")
	for _, s := range o.Steps() {
		fmt.Fprintf(out, "  %d. [%s] %s\n", s.ID, s.Tool, s.Description)
	}
}

func printSteps(out io.Writer, steps []contractx.Step) {
	for _, s := range steps {
		fmt.Fprintf(out, "Step %d [%s] %s%s\n", s.ID, s.Tool, s.Status, stepDetail(s))
	}
}

func stepDetail(s contractx.Step) string {
	if s.Status == contractx.StepFailed {
		return ": " + s.Error
	}
	if s.Result == nil {
		return ""
	}
	var parts []string
	if n := len(s.Result.Leads); n > 0 {
		parts = append(parts, fmt.Sprintf("%d leads", n))
	}
	if n := len(s.Result.Emails); n > 0 {
		parts = append(parts, fmt.Sprintf("%d emails", n))
	}
	if n := len(s.Result.SendResults); n > 0 {
		sent := 0
		for _, r := range s.Result.SendResults {
			if r.Status == contractx.SendSent {
				sent++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d sent", sent, n))
	}
	if len(parts) == 0 {
		return ""
	}
	return ": " + strings.Join(parts, ", ")
}

func printProgress(out io.Writer, p contractx.Progress) {
	fmt.Fprintln(out, "\nExecution complete!")
	fmt.Fprintf(out, "Progress: %.1f%%\n", p.Percentage)
	fmt.Fprintf(out, "Completed steps: %d/%d\n", p.CompletedSteps, p.TotalSteps)
	if p.FailedSteps > 0 {
		fmt.Fprintf(out, "Failed steps: %d\n", p.FailedSteps)
	}
}
