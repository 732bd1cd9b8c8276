package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry tracks run, reasoning and tool activity on a dedicated
// prometheus registry so tests never collide on the global one.
type Telemetry struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	runsSucceeded prometheus.Counter
	runsFailed    prometheus.Counter
	runDuration   prometheus.Histogram
	llmCalls      prometheus.Counter
	toolCalls     *prometheus.CounterVec
	toolFailures  *prometheus.CounterVec
}

func New() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizagent_runs_started_total",
			Help: "Quiz runs accepted by the control loop.",
		}),
		runsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizagent_runs_succeeded_total",
			Help: "Quiz runs that reached the completion token.",
		}),
		runsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizagent_runs_failed_total",
			Help: "Quiz runs that ended in a provider error or hit the iteration ceiling.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quizagent_run_duration_seconds",
			Help:    "Wall-clock duration of a full quiz run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		llmCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizagent_llm_calls_total",
			Help: "Reasoning calls issued to the language model.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizagent_tool_calls_total",
			Help: "Tool dispatches by tool name.",
		}, []string{"tool"}),
		toolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizagent_tool_failures_total",
			Help: "Tool dispatches that returned an error, by tool name.",
		}, []string{"tool"}),
	}
	t.registry.MustRegister(
		t.runsStarted, t.runsSucceeded, t.runsFailed, t.runDuration,
		t.llmCalls, t.toolCalls, t.toolFailures,
	)
	return t
}

func (t *Telemetry) RecordRunStart() { t.runsStarted.Inc() }

func (t *Telemetry) RecordRunEnd(d time.Duration, failed bool) {
	t.runDuration.Observe(d.Seconds())
	if failed {
		t.runsFailed.Inc()
	} else {
		t.runsSucceeded.Inc()
	}
}

func (t *Telemetry) RecordLLMCall() { t.llmCalls.Inc() }

func (t *Telemetry) RecordToolCall(tool string, failed bool) {
	t.toolCalls.WithLabelValues(tool).Inc()
	if failed {
		t.toolFailures.WithLabelValues(tool).Inc()
	}
}

// Handler serves the registry in the prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Gather exposes the raw registry, mostly for tests.
func (t *Telemetry) Gather() prometheus.Gatherer { return t.registry }
