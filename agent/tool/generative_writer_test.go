package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	openrouterx "github.com/tanpawarit/agent-sender/pkg/openrouter"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, reply func(req chatRequest) (int, string)) (*httptest.Server, *[]chatRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []chatRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		reqs = append(reqs, req)
		mu.Unlock()

		status, content := reply(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprint(w, `{"error":{"message":"bad request","type":"invalid_request_error"}}`)
			return
		}
		encoded, _ := json.Marshal(content)
		fmt.Fprintf(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":%q,"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%s}}]}`, req.Model, encoded)
	}))
	t.Cleanup(server.Close)
	return server, &reqs
}

func newTestGenerativeWriter(t *testing.T, serverURL string) *GenerativeWriter {
	t.Helper()

	client, err := openrouterx.NewClient(openrouterx.Config{APIKey: "test-key", BaseURL: serverURL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	w, err := NewGenerativeWriter(client, "openai/gpt-4o-mini", 0.7, "write emails")
	if err != nil {
		t.Fatalf("NewGenerativeWriter() error = %v", err)
	}
	return w
}

func TestGenerativeWriterDraftsPerLead(t *testing.T) {
	t.Parallel()

	server, reqs := newChatServer(t, func(req chatRequest) (int, string) {
		var payload struct {
			Tone string `json:"tone"`
			Lead struct {
				Name    string `json:"name"`
				Company string `json:"company"`
			} `json:"lead"`
		}
		_ = json.Unmarshal([]byte(req.Messages[len(req.Messages)-1].Content), &payload)
		return http.StatusOK, fmt.Sprintf("Subject: Idea for %s\n\nHi %s,\nquick %s note.\n\nYour Name",
			payload.Lead.Company, payload.Lead.Name, payload.Tone)
	})

	leads := []contractx.Lead{
		{Name: "Sarah Chen", Company: "AI Vision Labs", Email: "sarah@aivisionlabs.com"},
		{Name: "Emma Thompson", Company: "RoboLearn", Email: "emma@robolearn.ai"},
	}
	emails, err := newTestGenerativeWriter(t, server.URL).WriteEmails(context.Background(), leads, "friendly")
	if err != nil {
		t.Fatalf("WriteEmails() error = %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(emails))
	}
	if emails[1].Subject != "Idea for RoboLearn" {
		t.Fatalf("unexpected subject: %q", emails[1].Subject)
	}
	if !strings.Contains(emails[0].Body, "Sarah Chen") || !strings.Contains(emails[0].Body, "friendly") {
		t.Fatalf("unexpected body: %q", emails[0].Body)
	}
	if emails[0].To != "sarah@aivisionlabs.com" {
		t.Fatalf("unexpected recipient: %q", emails[0].To)
	}

	if len(*reqs) != 2 {
		t.Fatalf("expected 2 completion calls, got %d", len(*reqs))
	}
	first := (*reqs)[0]
	if first.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", first.Model)
	}
	if first.Messages[0].Role != "system" || first.Messages[0].Content != "write emails" {
		t.Fatalf("unexpected system message: %#v", first.Messages[0])
	}
}

func TestGenerativeWriterMalformedReply(t *testing.T) {
	t.Parallel()

	server, _ := newChatServer(t, func(chatRequest) (int, string) {
		return http.StatusOK, "I'd be happy to help with that!"
	})

	_, err := newTestGenerativeWriter(t, server.URL).WriteEmails(context.Background(),
		[]contractx.Lead{{Name: "Sarah", Company: "Acme", Email: "s@acme.io"}}, ToneProfessional)
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestGenerativeWriterAPIError(t *testing.T) {
	t.Parallel()

	server, _ := newChatServer(t, func(chatRequest) (int, string) {
		return http.StatusBadRequest, ""
	})

	_, err := newTestGenerativeWriter(t, server.URL).WriteEmails(context.Background(),
		[]contractx.Lead{{Name: "Sarah", Company: "Acme", Email: "s@acme.io"}}, ToneProfessional)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestNewGenerativeWriterValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerativeWriter(nil, "m", 0, "p"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
