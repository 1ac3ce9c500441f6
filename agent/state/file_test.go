package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestFileStoreStepRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir(), WithFileClock(fixedClock()))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	step := contractx.Step{ID: 2, Description: "Create emails", Tool: contractx.ToolWriteEmail, Status: contractx.StepCompleted}
	for _, rec := range []contractx.StepRecord{
		{Kind: contractx.RecordGoalSet, RunID: "run-1", Goal: "Find founders"},
		{Kind: contractx.RecordStep, RunID: "run-1", Step: &step},
	} {
		if err := store.SaveStep(ctx, rec); err != nil {
			t.Fatalf("SaveStep() error = %v", err)
		}
	}

	records, err := store.AllSteps(ctx)
	if err != nil {
		t.Fatalf("AllSteps() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Kind != contractx.RecordGoalSet {
		t.Fatalf("records out of write order: %#v", records)
	}
	got := records[1].Step
	if got == nil || got.ID != 2 || got.Tool != contractx.ToolWriteEmail || got.Status != contractx.StepCompleted {
		t.Fatalf("unexpected step read back: %#v", got)
	}
	if !records[1].RecordedAt.Equal(fixedClock()()) {
		t.Fatalf("recorded_at = %v", records[1].RecordedAt)
	}

	again, err := store.AllSteps(ctx)
	if err != nil {
		t.Fatalf("AllSteps() error = %v", err)
	}
	if len(again) != 2 || again[1].Step.Status != contractx.StepCompleted {
		t.Fatal("read path must not mutate records")
	}
}

func TestFileStoreLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir, WithFileClock(fixedClock()))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.SaveLeads(ctx, []contractx.Lead{{Name: "Sarah"}}); err != nil {
		t.Fatalf("SaveLeads() error = %v", err)
	}
	if err := store.SaveEmail(ctx, contractx.Email{To: "s@x.io"}); err != nil {
		t.Fatalf("SaveEmail() error = %v", err)
	}

	for sub, prefix := range map[string]string{leadsDir: "leads_20261017T093000", emailsDir: "email_20261017T093000"} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			t.Fatalf("ReadDir(%s) error = %v", sub, err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected one file in %s, got %d", sub, len(entries))
		}
		name := entries[0].Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			t.Fatalf("unexpected file name %q in %s", name, sub)
		}
	}
}

func TestFileStoreLeadsAndEmails(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir(), WithFileClock(fixedClock()))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.SaveLeads(ctx, []contractx.Lead{{Name: "A"}, {Name: "B"}}); err != nil {
		t.Fatalf("SaveLeads() error = %v", err)
	}
	if err := store.SaveLeads(ctx, []contractx.Lead{{Name: "C"}}); err != nil {
		t.Fatalf("SaveLeads() error = %v", err)
	}
	leads, err := store.AllLeads(ctx)
	if err != nil {
		t.Fatalf("AllLeads() error = %v", err)
	}
	if len(leads) != 3 || leads[0].Name != "A" || leads[2].Name != "C" {
		t.Fatalf("unexpected leads: %#v", leads)
	}

	lead := contractx.Lead{Name: "Sarah Chen", Company: "AI Vision Labs"}
	if err := store.SaveEmail(ctx, contractx.Email{To: "sarah@x.io", Subject: "Hi", Body: "Body", Lead: lead}); err != nil {
		t.Fatalf("SaveEmail() error = %v", err)
	}
	emails, err := store.AllEmails(ctx)
	if err != nil {
		t.Fatalf("AllEmails() error = %v", err)
	}
	if len(emails) != 1 || emails[0].To != "sarah@x.io" || emails[0].Lead.Company != "AI Vision Labs" {
		t.Fatalf("unexpected emails: %#v", emails)
	}
}

func TestFileStoreSkipsForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, leadsDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}
	leads, err := store.AllLeads(context.Background())
	if err != nil {
		t.Fatalf("AllLeads() error = %v", err)
	}
	if len(leads) != 0 {
		t.Fatalf("expected no leads, got %d", len(leads))
	}
}

func TestFileStoreCorruptRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, stepsDir, "step_bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := store.AllSteps(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	t.Parallel()

	if _, err := NewFileStore("  "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	store, err := Open(context.Background(), Config{Backend: "FILE", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("expected FileStore, got %T", store)
	}
	if err := Close(store); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := Open(context.Background(), Config{Backend: "upstash"}); err == nil {
		t.Fatal("expected error for upstash without url")
	}
	if _, err := Open(context.Background(), Config{Backend: "postgres"}); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
	if _, err := Open(context.Background(), Config{Backend: "sqlite"}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}
