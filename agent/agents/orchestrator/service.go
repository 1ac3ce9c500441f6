package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	metricsx "github.com/tanpawarit/agent-sender/pkg/metrics"
	"golang.org/x/time/rate"
)

const defaultTone = "professional"

// Config is loaded with prefix AGENT.
type Config struct {
	Tone string `envconfig:"TONE" default:"professional"`
	// StepInterval spaces out step dispatches; zero disables throttling.
	StepInterval time.Duration `envconfig:"STEP_INTERVAL" default:"1s"`
}

// Orchestrator owns one goal, its plan and the lead/email working sets.
// It is not safe for concurrent use.
type Orchestrator struct {
	planner contractx.Planner
	tools   contractx.Toolset
	store   contractx.Store

	defaultTone string
	limiter     *rate.Limiter
	metrics     *metricsx.Recorder
	now         func() time.Time
	log         zerolog.Logger

	runID  string
	goal   string
	tone   string
	steps  []contractx.Step
	leads  []contractx.Lead
	emails []contractx.Email
}

type Option func(*Orchestrator)

func WithMetrics(r *metricsx.Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

func New(
	planner contractx.Planner,
	tools contractx.Toolset,
	store contractx.Store,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if planner == nil {
		return nil, errors.New("planner is required")
	}
	if tools == nil {
		return nil, errors.New("toolset is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}

	tone := strings.TrimSpace(cfg.Tone)
	if tone == "" {
		tone = defaultTone
	}

	o := &Orchestrator{
		planner:     planner,
		tools:       tools,
		store:       store,
		defaultTone: tone,
		tone:        tone,
		now:         time.Now,
		log:         log.Logger.With().Str("component", "orchestrator").Logger(),
	}
	if cfg.StepInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(cfg.StepInterval), 1)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// SetGoal discards the current plan and working sets, plans the new goal
// under a fresh run id and records the plan. An empty tone keeps the tone of
// the previous goal.
func (o *Orchestrator) SetGoal(ctx context.Context, goal, tone string) error {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return contractx.ErrInvalidGoal
	}

	o.runID = uuid.NewString()
	o.goal = goal
	if t := strings.TrimSpace(tone); t != "" {
		o.tone = t
	}
	o.leads = nil
	o.emails = nil
	o.steps = o.planner.BreakDown(ctx, goal)

	o.log.Info().
		Str("run_id", o.runID).
		Str("goal", goal).
		Int("steps", len(o.steps)).
		Msg("goal set")

	rec := contractx.StepRecord{
		Kind:  contractx.RecordGoalSet,
		RunID: o.runID,
		Goal:  goal,
		Tone:  o.tone,
		Plan:  o.Steps(),
	}
	if err := o.store.SaveStep(context.WithoutCancel(ctx), rec); err != nil {
		return persistErr("save goal", err)
	}
	return nil
}

// Run executes pending steps in plan order until none remain. Step failures
// are recorded on the step; only persistence errors and cancellation stop
// the loop early.
func (o *Orchestrator) Run(ctx context.Context) ([]contractx.StepResult, error) {
	if o.goal == "" {
		return nil, contractx.ErrNoGoal
	}

	results := make([]contractx.StepResult, 0, len(o.steps))
	for {
		idx := o.nextPending()
		if idx < 0 {
			break
		}
		if err := o.throttle(ctx); err != nil {
			return results, err
		}

		res, err := o.ExecuteStep(ctx, &o.steps[idx])
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}

	p := o.Progress()
	o.log.Info().
		Str("run_id", o.runID).
		Int("completed", p.CompletedSteps).
		Int("failed", p.FailedSteps).
		Float64("progress", p.Percentage).
		Msg("run finished")
	return results, nil
}

func (o *Orchestrator) throttle(ctx context.Context) error {
	if o.limiter == nil {
		return ctx.Err()
	}
	return o.limiter.Wait(ctx)
}

func (o *Orchestrator) nextPending() int {
	for i := range o.steps {
		if o.steps[i].Status == contractx.StepPending {
			return i
		}
	}
	return -1
}

// Progress is recomputed from step statuses on every call.
func (o *Orchestrator) Progress() contractx.Progress {
	p := contractx.Progress{
		RunID:      o.runID,
		Goal:       o.goal,
		TotalSteps: len(o.steps),
		State:      contractx.RunNoGoal,
	}
	if o.goal == "" {
		return p
	}

	untouched := 0
	for _, s := range o.steps {
		switch s.Status {
		case contractx.StepCompleted:
			p.CompletedSteps++
		case contractx.StepFailed:
			p.FailedSteps++
		case contractx.StepPending:
			untouched++
		}
	}
	// in_progress counts as pending until it reaches a terminal state.
	p.PendingSteps = p.TotalSteps - p.CompletedSteps - p.FailedSteps
	if p.TotalSteps > 0 {
		p.Percentage = float64(p.CompletedSteps) / float64(p.TotalSteps) * 100
	}

	switch {
	case p.PendingSteps == 0:
		p.State = contractx.RunDone
	case untouched == p.TotalSteps:
		p.State = contractx.RunPlanned
	default:
		p.State = contractx.RunRunning
	}
	return p
}

func (o *Orchestrator) Steps() []contractx.Step {
	out := make([]contractx.Step, len(o.steps))
	copy(out, o.steps)
	return out
}

func (o *Orchestrator) RunID() string { return o.runID }

func (o *Orchestrator) Goal() string { return o.goal }

func (o *Orchestrator) Tone() string { return o.tone }

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", contractx.ErrPersistence, op, err)
}
