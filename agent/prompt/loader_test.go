package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.Planner == "" || set.Email == "" {
		t.Fatal("expected embedded prompts to be non-empty")
	}
	for _, tool := range []string{"search", "write_email", "send_email"} {
		if !strings.Contains(set.Planner, tool) {
			t.Fatalf("planner prompt does not mention tool %q", tool)
		}
	}
	if strings.Contains(set.Planner, "{{") || strings.Contains(set.Planner, "}}") {
		t.Fatal("planner prompt must not contain template delimiters")
	}
	if !strings.Contains(set.Email, "Subject:") {
		t.Fatal("email prompt must describe the Subject line format")
	}
}
