package openrouter

import (
	"context"
	"errors"
	"testing"
)

func TestBaseURLDefaultAndTrim(t *testing.T) {
	t.Parallel()

	if got := (Config{}).baseURL(); got != DefaultBaseURL {
		t.Fatalf("baseURL() = %q, want %q", got, DefaultBaseURL)
	}
	if got := (Config{BaseURL: " http://localhost:8080/v1/ "}).baseURL(); got != "http://localhost:8080/v1" {
		t.Fatalf("baseURL() = %q", got)
	}
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	h := Config{SiteURL: "https://example.com", SiteName: "agent-sender"}.headers()
	if h["HTTP-Referer"] != "https://example.com" {
		t.Fatalf("unexpected referer header: %#v", h)
	}
	if h["X-Title"] != "agent-sender" {
		t.Fatalf("unexpected title header: %#v", h)
	}
	if len((Config{}).headers()) != 0 {
		t.Fatal("expected no headers for empty config")
	}
}

func TestMissingAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{Model: "m"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewClient() error = %v, want ErrMissingAPIKey", err)
	}
	if _, err := NewChatModel(context.Background(), Config{Model: "m"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewChatModel() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{APIKey: " key ", Model: "openai/gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client == nil {
		t.Fatal("expected client")
	}
}
