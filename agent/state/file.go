package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

const (
	stepsDir  = "steps"
	leadsDir  = "leads"
	emailsDir = "emails"

	fileTimestampLayout = "20060102T150405.000000000Z"
)

type FileOption func(*FileStore)

func WithFileClock(now func() time.Time) FileOption {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// FileStore writes one JSON document per record under
// <dir>/{steps,leads,emails}. File names sort in write order.
type FileStore struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	seq uint64
}

func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	for _, sub := range []string{stepsDir, leadsDir, emailsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", sub, err)
		}
	}

	store := &FileStore{dir: dir, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) SaveStep(ctx context.Context, rec contractx.StepRecord) error {
	rec.RecordedAt = s.now().UTC()
	return s.write(ctx, stepsDir, "step", rec.RecordedAt, rec)
}

func (s *FileStore) SaveLeads(ctx context.Context, leads []contractx.Lead) error {
	batch := leadBatch{RecordedAt: s.now().UTC(), Leads: leads}
	if batch.Leads == nil {
		batch.Leads = []contractx.Lead{}
	}
	return s.write(ctx, leadsDir, "leads", batch.RecordedAt, batch)
}

func (s *FileStore) SaveEmail(ctx context.Context, email contractx.Email) error {
	entry := emailEntry{RecordedAt: s.now().UTC(), Email: email}
	return s.write(ctx, emailsDir, "email", entry.RecordedAt, entry)
}

func (s *FileStore) AllLeads(ctx context.Context) ([]contractx.Lead, error) {
	batches, err := readAll[leadBatch](ctx, filepath.Join(s.dir, leadsDir))
	if err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}

func (s *FileStore) AllEmails(ctx context.Context) ([]contractx.Email, error) {
	entries, err := readAll[emailEntry](ctx, filepath.Join(s.dir, emailsDir))
	if err != nil {
		return nil, err
	}
	return unwrapEmails(entries), nil
}

func (s *FileStore) AllSteps(ctx context.Context) ([]contractx.StepRecord, error) {
	return readAll[contractx.StepRecord](ctx, filepath.Join(s.dir, stepsDir))
}

func (s *FileStore) write(ctx context.Context, sub, kind string, at time.Time, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", kind, err)
	}

	s.mu.Lock()
	s.seq++
	name := fmt.Sprintf("%s_%s_%06d.json", kind, at.Format(fileTimestampLayout), s.seq)
	s.mu.Unlock()

	path := filepath.Join(s.dir, sub, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s record: %w", kind, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s record: %w", kind, err)
	}
	return nil
}

func readAll[T any](ctx context.Context, dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]T, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		out = append(out, v)
	}
	return out, nil
}
