package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "agent_sender"

var ErrPushDisabled = errors.New("pushgateway url is not configured")

type Config struct {
	PushgatewayURL string `split_words:"true"`
	Job            string `split_words:"true" default:"agent_sender"`
}

// Recorder holds run metrics on a private registry. A nil *Recorder is a
// valid no-op.
type Recorder struct {
	registry     *prometheus.Registry
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	leads        prometheus.Counter
	sends        *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Executed plan steps by tool and final status.",
		}, []string{"tool", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time spent executing a step, including persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"tool"}),
		leads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_found_total",
			Help:      "Leads returned by search steps.",
		}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Email send outcomes by status.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(r.steps, r.stepDuration, r.leads, r.sends)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveStep(tool, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(tool, status).Inc()
	r.stepDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func (r *Recorder) AddLeads(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.leads.Add(float64(n))
}

func (r *Recorder) ObserveSend(status string) {
	if r == nil {
		return
	}
	r.sends.WithLabelValues(status).Inc()
}

// Push sends the registry to a Prometheus Pushgateway, grouped by run id.
func (r *Recorder) Push(ctx context.Context, cfg Config, runID string) error {
	if r == nil {
		return nil
	}
	url := strings.TrimSpace(cfg.PushgatewayURL)
	if url == "" {
		return ErrPushDisabled
	}
	job := strings.TrimSpace(cfg.Job)
	if job == "" {
		job = namespace
	}

	pusher := push.New(url, job).Gatherer(r.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
