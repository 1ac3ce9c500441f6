package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

const (
	defaultStoreKeyPrefix = "agent-sender:"
	maxResponseSizeBytes  = 8 << 20
)

// UpstashOption customizes UpstashStore.
type UpstashOption func(*UpstashStore)

func WithKeyPrefix(prefix string) UpstashOption {
	return func(s *UpstashStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithHTTPClient(client *http.Client) UpstashOption {
	return func(s *UpstashStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

func WithUpstashClock(now func() time.Time) UpstashOption {
	return func(s *UpstashStore) {
		if now != nil {
			s.now = now
		}
	}
}

// UpstashStore appends records to three Redis lists over the Upstash REST API.
type UpstashStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	now        func() time.Time
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

func NewUpstashStore(cfg UpstashConfig, opts ...UpstashOption) (*UpstashStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultStoreKeyPrefix,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *UpstashStore) SaveStep(ctx context.Context, rec contractx.StepRecord) error {
	rec.RecordedAt = s.now().UTC()
	return s.push(ctx, stepsDir, rec)
}

func (s *UpstashStore) SaveLeads(ctx context.Context, leads []contractx.Lead) error {
	batch := leadBatch{RecordedAt: s.now().UTC(), Leads: leads}
	if batch.Leads == nil {
		batch.Leads = []contractx.Lead{}
	}
	return s.push(ctx, leadsDir, batch)
}

func (s *UpstashStore) SaveEmail(ctx context.Context, email contractx.Email) error {
	return s.push(ctx, emailsDir, emailEntry{RecordedAt: s.now().UTC(), Email: email})
}

func (s *UpstashStore) AllLeads(ctx context.Context) ([]contractx.Lead, error) {
	batches, err := listRange[leadBatch](ctx, s, leadsDir)
	if err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}

func (s *UpstashStore) AllEmails(ctx context.Context) ([]contractx.Email, error) {
	entries, err := listRange[emailEntry](ctx, s, emailsDir)
	if err != nil {
		return nil, err
	}
	return unwrapEmails(entries), nil
}

func (s *UpstashStore) AllSteps(ctx context.Context) ([]contractx.StepRecord, error) {
	return listRange[contractx.StepRecord](ctx, s, stepsDir)
}

func (s *UpstashStore) key(list string) string {
	return s.keyPrefix + list
}

func (s *UpstashStore) push(ctx context.Context, list string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", list, err)
	}
	if _, err := s.exec(ctx, []any{"RPUSH", s.key(list), string(payload)}); err != nil {
		return err
	}
	return nil
}

func listRange[T any](ctx context.Context, s *UpstashStore, list string) ([]T, error) {
	resp, err := s.exec(ctx, []any{"LRANGE", s.key(list), 0, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return []T{}, nil
	}

	var encoded []string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", list, err)
	}

	out := make([]T, 0, len(encoded))
	for i, item := range encoded {
		var v T
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", list, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *UpstashStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}
