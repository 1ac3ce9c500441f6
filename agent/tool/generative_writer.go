package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

// GenerativeWriter drafts one email per lead with a chat completion call.
type GenerativeWriter struct {
	client       *openaisdk.Client
	model        string
	temperature  float64
	systemPrompt string
}

func NewGenerativeWriter(client *openaisdk.Client, model string, temperature float32, systemPrompt string) (*GenerativeWriter, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: writer model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}
	return &GenerativeWriter{
		client:       client,
		model:        strings.TrimSpace(model),
		temperature:  float64(temperature),
		systemPrompt: systemPrompt,
	}, nil
}

func (w *GenerativeWriter) WriteEmails(ctx context.Context, leads []contractx.Lead, tone string) ([]contractx.Email, error) {
	if strings.TrimSpace(tone) == "" {
		tone = ToneProfessional
	}

	emails := make([]contractx.Email, 0, len(leads))
	for _, lead := range leads {
		if strings.TrimSpace(lead.Email) == "" {
			return nil, fmt.Errorf("lead %q has no email address", lead.Name)
		}
		email, err := w.draft(ctx, lead, tone)
		if err != nil {
			return nil, fmt.Errorf("draft email for %s: %w", lead.Email, err)
		}
		emails = append(emails, email)
	}
	return emails, nil
}

func (w *GenerativeWriter) draft(ctx context.Context, lead contractx.Lead, tone string) (contractx.Email, error) {
	payload, err := json.Marshal(map[string]any{
		"tone": tone,
		"lead": map[string]any{
			"name":                lead.Name,
			"company":             lead.Company,
			"role":                lead.Role,
			"company_description": lead.CompanyDescription,
		},
	})
	if err != nil {
		return contractx.Email{}, fmt.Errorf("%w: marshal writer payload: %v", contractx.ErrValidation, err)
	}

	resp, err := w.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(w.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(w.systemPrompt),
			openaisdk.UserMessage(string(payload)),
		},
		Temperature: openaisdk.Float(w.temperature),
	})
	if err != nil {
		return contractx.Email{}, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return contractx.Email{}, fmt.Errorf("%w: no choices returned", contractx.ErrSchemaViolation)
	}

	subject, body, err := splitDraft(resp.Choices[0].Message.Content)
	if err != nil {
		return contractx.Email{}, errors.Join(contractx.ErrSchemaViolation, err)
	}

	return contractx.Email{
		To:      lead.Email,
		Subject: subject,
		Body:    body,
		Lead:    lead,
	}, nil
}
