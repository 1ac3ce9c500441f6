package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/email.txt
	emailRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Planner string
	Email   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Planner: strings.TrimSpace(plannerRaw),
		Email:   strings.TrimSpace(emailRaw),
	}
}
