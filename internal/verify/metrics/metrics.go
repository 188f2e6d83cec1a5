// Package metrics provides observability for the verification engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all verification metrics. A nil *Metrics is safe to call.
type Metrics struct {
	// Provider call attempts by source, endpoint, and outcome
	ProviderAttempts *prometheus.CounterVec

	// Cache lookups by source and hit/miss
	CacheLookups *prometheus.CounterVec

	// Per-step latency within a workflow run
	StepLatency *prometheus.HistogramVec

	// Final workflow outcomes
	WorkflowOutcomes *prometheus.CounterVec

	// Full run latency including all source checks
	RunLatency prometheus.Histogram
}

// New creates a Metrics instance with all collectors registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		ProviderAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "driveid_verify_provider_attempts_total",
			Help: "Provider call attempts by source, endpoint, and outcome",
		}, []string{"source", "endpoint", "outcome"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "driveid_verify_cache_lookups_total",
			Help: "Verification cache lookups by source and result",
		}, []string{"source", "result"}),

		StepLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driveid_verify_step_duration_seconds",
			Help:    "Duration of individual verification steps",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"step"}),

		WorkflowOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "driveid_verify_workflow_outcomes_total",
			Help: "Final verification outcomes by overall status",
		}, []string{"status"}),

		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "driveid_verify_run_duration_seconds",
			Help:    "Duration of full verification runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncProviderAttempt records one provider call attempt.
func (m *Metrics) IncProviderAttempt(source, endpoint, outcome string) {
	if m != nil {
		m.ProviderAttempts.WithLabelValues(source, endpoint, outcome).Inc()
	}
}

// IncCacheLookup records a cache hit or miss.
func (m *Metrics) IncCacheLookup(source string, hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheLookups.WithLabelValues(source, result).Inc()
	}
}

// ObserveStepLatency records the duration of one verification step.
func (m *Metrics) ObserveStepLatency(step string, d time.Duration) {
	if m != nil {
		m.StepLatency.WithLabelValues(step).Observe(d.Seconds())
	}
}

// IncWorkflowOutcome records a final decision.
func (m *Metrics) IncWorkflowOutcome(status string) {
	if m != nil {
		m.WorkflowOutcomes.WithLabelValues(status).Inc()
	}
}

// ObserveRunLatency records the duration of a full run.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}
