package planner

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

var (
	outreachSequence = []contractx.ToolName{
		contractx.ToolSearch,
		contractx.ToolWriteEmail,
		contractx.ToolSendEmail,
	}
	researchSequence = []contractx.ToolName{
		contractx.ToolSearch,
		contractx.ToolSummarize,
		contractx.ToolWriteEmail,
	}
)

type keywordRule struct {
	keyword string
	tools   []contractx.ToolName
}

// Checked in this order; the first keyword present anywhere in the goal wins.
var keywordRules = []keywordRule{
	{keyword: "find", tools: outreachSequence},
	{keyword: "research", tools: researchSequence},
	{keyword: "outreach", tools: outreachSequence},
	{keyword: "contact", tools: outreachSequence},
	{keyword: "connect", tools: outreachSequence},
}

// KeywordStrategy maps trigger words to fixed tool sequences.
type KeywordStrategy struct{}

func (KeywordStrategy) Decompose(_ context.Context, goal string) ([]Draft, error) {
	lower := strings.ToLower(goal)
	for _, rule := range keywordRules {
		if !strings.Contains(lower, rule.keyword) {
			continue
		}
		drafts := make([]Draft, 0, len(rule.tools))
		for _, tool := range rule.tools {
			drafts = append(drafts, Draft{
				Description: describeStep(tool, goal),
				Tool:        tool,
			})
		}
		return drafts, nil
	}
	return nil, fmt.Errorf("%w: no keyword matched goal", contractx.ErrPlanning)
}
