package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

const (
	ToneProfessional = "professional"
	ToneFriendly     = "friendly"
	ToneFunny        = "funny"

	defaultCompanyDescription = "their work"
)

// Templates use %[1]s name, %[2]s company, %[3]s company description.
var toneTemplates = map[string]string{
	ToneProfessional: "Subject: Unlock New Possibilities with Our Dev Tool\n\n" +
		"Hi %[1]s,\n\n" +
		"I came across your work at %[2]s and was impressed by your impact in the AI space. " +
		"We're building a new developer tool that could help %[3]s. " +
		"Would you be open to a quick chat about how it might benefit your team?\n\n" +
		"Best regards,\nYour Name",
	ToneFriendly: "Subject: Quick Hello from a Fellow AI Enthusiast!\n\n" +
		"Hey %[1]s,\n\n" +
		"Saw what you're doing at %[2]s, super cool! " +
		"I've been working on a dev tool that could be a great fit for %[3]s. " +
		"Want to connect and swap ideas?\n\n" +
		"Cheers,\nYour Name",
	ToneFunny: "Subject: This Email Contains 0%% Spam, 100%% AI Magic 🪄\n\n" +
		"Hi %[1]s,\n\n" +
		"Promise this isn't a robot (well, maybe a little). " +
		"Loved what you're doing at %[2]s. " +
		"I've got a dev tool that could make %[3]s even cooler. " +
		"Up for a quick chat? I promise no more puns.\n\n" +
		"To infinity and beyond,\nYour Name",
}

// TemplateWriter drafts emails from fixed per-tone templates. Unknown tones
// use the professional template.
type TemplateWriter struct{}

func (TemplateWriter) WriteEmails(ctx context.Context, leads []contractx.Lead, tone string) ([]contractx.Email, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	template, ok := toneTemplates[strings.ToLower(strings.TrimSpace(tone))]
	if !ok {
		template = toneTemplates[ToneProfessional]
	}

	emails := make([]contractx.Email, 0, len(leads))
	for _, lead := range leads {
		if strings.TrimSpace(lead.Email) == "" {
			return nil, fmt.Errorf("lead %q has no email address", lead.Name)
		}
		description := lead.CompanyDescription
		if strings.TrimSpace(description) == "" {
			description = defaultCompanyDescription
		}

		subject, body, err := splitDraft(fmt.Sprintf(template, lead.Name, lead.Company, description))
		if err != nil {
			return nil, err
		}
		emails = append(emails, contractx.Email{
			To:      lead.Email,
			Subject: subject,
			Body:    body,
			Lead:    lead,
		})
	}
	return emails, nil
}

// splitDraft separates a "Subject: ..." first line from the body.
func splitDraft(text string) (string, string, error) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")

	subject, ok := strings.CutPrefix(strings.TrimSpace(first), "Subject:")
	if !ok {
		return "", "", fmt.Errorf("draft is missing a subject line")
	}
	subject = strings.TrimSpace(subject)
	body := strings.TrimSpace(rest)
	if subject == "" || body == "" {
		return "", "", fmt.Errorf("draft has empty subject or body")
	}
	return subject, body, nil
}
