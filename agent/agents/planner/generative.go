package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

const maxGeneratedSteps = 10

type plannerLLMOutput struct {
	Steps []Draft `json:"steps"`
}

// GenerativeStrategy asks a chat model for the step list.
type GenerativeStrategy struct {
	runner compose.Runnable[map[string]any, plannerLLMOutput]
}

func NewGenerativeStrategy(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*GenerativeStrategy, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}
	runner, err := compilePlannerGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile planner graph: %v", contractx.ErrModelInvoke, err)
	}
	return &GenerativeStrategy{runner: runner}, nil
}

func (s *GenerativeStrategy) Decompose(ctx context.Context, goal string) ([]Draft, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, fmt.Errorf("%w: goal is required", contractx.ErrValidation)
	}

	inputBytes, err := json.Marshal(map[string]any{"goal": goal})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal planner payload: %v", contractx.ErrValidation, err)
	}

	out, err := s.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: planner invoke: %v", contractx.ErrModelInvoke, err)
	}

	return normalizeDrafts(out.Steps, goal)
}

func normalizeDrafts(raw []Draft, goal string) ([]Draft, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no steps returned", contractx.ErrSchemaViolation)
	}
	if len(raw) > maxGeneratedSteps {
		return nil, fmt.Errorf("%w: %d steps exceeds limit %d", contractx.ErrSchemaViolation, len(raw), maxGeneratedSteps)
	}

	drafts := make([]Draft, 0, len(raw))
	for i, d := range raw {
		tool := contractx.ToolName(strings.ToLower(strings.TrimSpace(string(d.Tool))))
		if tool == "" {
			return nil, fmt.Errorf("%w: step %d has no tool", contractx.ErrSchemaViolation, i+1)
		}
		description := strings.TrimSpace(d.Description)
		if description == "" {
			description = describeStep(tool, goal)
		}
		drafts = append(drafts, Draft{Description: description, Tool: tool})
	}
	return drafts, nil
}
