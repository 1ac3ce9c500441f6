package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	llmx "github.com/tanpawarit/agent-sender/agent/llm"
	promptx "github.com/tanpawarit/agent-sender/agent/prompt"
	openrouterx "github.com/tanpawarit/agent-sender/pkg/openrouter"
)

const (
	StrategyKeyword    = "keyword"
	StrategyGenerative = "generative"
)

type Config struct {
	Strategy string `split_words:"true" default:"keyword"`
}

// Draft is a step before it gets an id, status and timestamp.
type Draft struct {
	Description string             `json:"description"`
	Tool        contractx.ToolName `json:"tool"`
}

// Strategy decomposes a goal into ordered drafts. Any error sends the
// planner to the fallback plan.
type Strategy interface {
	Decompose(ctx context.Context, goal string) ([]Draft, error)
}

var _ contractx.Planner = (*Planner)(nil)

type Planner struct {
	strategy Strategy
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Planner)

func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Planner) {
		p.log = l
	}
}

func New(strategy Strategy, opts ...Option) *Planner {
	if strategy == nil {
		strategy = KeywordStrategy{}
	}
	p := &Planner{
		strategy: strategy,
		now:      time.Now,
		log:      log.Logger.With().Str("component", "planner").Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// NewFromConfig picks the strategy named by cfg. The generative strategy
// needs a valid LLM config; the keyword strategy ignores it.
func NewFromConfig(ctx context.Context, cfg Config, llmCfg llmx.Config, opts ...Option) (*Planner, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Strategy)) {
	case "", StrategyKeyword:
		return New(KeywordStrategy{}, opts...), nil
	case StrategyGenerative:
		if err := llmCfg.Validate(); err != nil {
			return nil, err
		}
		chatModel, err := openrouterx.NewChatModel(ctx, llmCfg.OpenRouterFor(contractx.RolePlanner))
		if err != nil {
			return nil, fmt.Errorf("%w: create planner model: %v", contractx.ErrModelInvoke, err)
		}
		strategy, err := NewGenerativeStrategy(ctx, chatModel, promptx.LoadPromptSet().Planner)
		if err != nil {
			return nil, err
		}
		return New(strategy, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown planner strategy %q", contractx.ErrValidation, cfg.Strategy)
	}
}

func (p *Planner) BreakDown(ctx context.Context, goal string) []contractx.Step {
	drafts, err := p.strategy.Decompose(ctx, goal)
	if err == nil && len(drafts) == 0 {
		err = fmt.Errorf("%w: strategy returned no steps", contractx.ErrPlanning)
	}
	if err != nil {
		p.log.Warn().Err(err).Str("goal", goal).Msg("using fallback plan")
		drafts = fallbackDrafts()
	}

	createdAt := p.now().UTC()
	steps := make([]contractx.Step, 0, len(drafts))
	for i, d := range drafts {
		steps = append(steps, contractx.Step{
			ID:          i + 1,
			Description: d.Description,
			Tool:        d.Tool,
			Status:      contractx.StepPending,
			CreatedAt:   createdAt,
		})
	}

	p.log.Debug().Int("steps", len(steps)).Str("goal", goal).Msg("plan created")
	return steps
}

func describeStep(tool contractx.ToolName, goal string) string {
	switch tool {
	case contractx.ToolSearch:
		return "Research and find relevant leads for: " + goal
	case contractx.ToolSummarize:
		return "Generate summaries of the found leads and their companies"
	case contractx.ToolWriteEmail:
		return "Create personalized outreach emails for each lead"
	case contractx.ToolSendEmail:
		return "Send the prepared emails to the leads"
	default:
		return fmt.Sprintf("Execute %s step for: %s", tool, goal)
	}
}

func fallbackDrafts() []Draft {
	return []Draft{
		{Description: "Research and find relevant leads", Tool: contractx.ToolSearch},
		{Description: "Generate personalized emails for each lead", Tool: contractx.ToolWriteEmail},
		{Description: "Send the emails", Tool: contractx.ToolSendEmail},
	}
}
