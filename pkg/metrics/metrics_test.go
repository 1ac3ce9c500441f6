package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveStep("search", "completed", 20*time.Millisecond)
	r.ObserveStep("search", "completed", 30*time.Millisecond)
	r.ObserveStep("summarize", "failed", time.Millisecond)
	r.AddLeads(3)
	r.AddLeads(0)
	r.ObserveSend("sent")
	r.ObserveSend("failed")
	r.ObserveSend("sent")

	if got := testutil.ToFloat64(r.steps.WithLabelValues("search", "completed")); got != 2 {
		t.Fatalf("search completed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.steps.WithLabelValues("summarize", "failed")); got != 1 {
		t.Fatalf("summarize failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.leads); got != 3 {
		t.Fatalf("leads = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.sends.WithLabelValues("sent")); got != 2 {
		t.Fatalf("sent = %v, want 2", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveStep("search", "completed", time.Second)
	r.AddLeads(1)
	r.ObserveSend("sent")
	if r.Registry() != nil {
		t.Fatal("expected nil registry")
	}
	if err := r.Push(context.Background(), Config{}, "run"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
}

func TestPushDisabled(t *testing.T) {
	t.Parallel()

	err := NewRecorder().Push(context.Background(), Config{}, "run")
	if !errors.Is(err, ErrPushDisabled) {
		t.Fatalf("Push() error = %v, want ErrPushDisabled", err)
	}
}

func TestPushGroupsByRun(t *testing.T) {
	t.Parallel()

	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	r := NewRecorder()
	r.ObserveStep("search", "completed", time.Millisecond)
	if err := r.Push(context.Background(), Config{PushgatewayURL: server.URL, Job: "outreach"}, "run-1"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %s, want PUT", gotMethod)
	}
	if !strings.HasPrefix(gotPath, "/metrics/job/outreach") || !strings.Contains(gotPath, "run_id/run-1") {
		t.Fatalf("unexpected push path: %s", gotPath)
	}
}
