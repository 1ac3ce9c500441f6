package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

const (
	BackendFile     = "file"
	BackendUpstash  = "upstash"
	BackendPostgres = "postgres"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Config is loaded with prefix STORE.
type Config struct {
	Backend      string        `envconfig:"BACKEND" default:"file"`
	Dir          string        `envconfig:"DIR" default:"logs"`
	UpstashURL   string        `envconfig:"UPSTASH_URL"`
	UpstashToken string        `envconfig:"UPSTASH_TOKEN"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"agent-sender:"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"10s"`
	PostgresDSN  string        `envconfig:"POSTGRES_DSN"`
}

// Open builds the configured backend. Callers should close the result when it
// implements io.Closer.
func Open(ctx context.Context, cfg Config) (contractx.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		store, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendUpstash:
		store, err := NewUpstashStore(
			UpstashConfig{URL: cfg.UpstashURL, Token: cfg.UpstashToken, Timeout: cfg.Timeout},
			WithKeyPrefix(cfg.KeyPrefix),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		store, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Close releases the store if it holds resources.
func Close(store contractx.Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type leadBatch struct {
	RecordedAt time.Time        `json:"recorded_at"`
	Leads      []contractx.Lead `json:"leads"`
}

type emailEntry struct {
	RecordedAt time.Time `json:"recorded_at"`
	contractx.Email
}

func flattenBatches(batches []leadBatch) []contractx.Lead {
	leads := make([]contractx.Lead, 0, len(batches))
	for _, b := range batches {
		leads = append(leads, b.Leads...)
	}
	return leads
}

func unwrapEmails(entries []emailEntry) []contractx.Email {
	emails := make([]contractx.Email, 0, len(entries))
	for _, e := range entries {
		emails = append(emails, e.Email)
	}
	return emails
}
