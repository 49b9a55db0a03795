// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// InterpretationsTotal tracks interpretation turns by outcome.
	InterpretationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpreter_turns_total",
			Help: "Interpretation turns by outcome: success, warning, error, partial",
		},
		[]string{"outcome"},
	)

	// IntentConfidence tracks the classifier's confidence distribution.
	IntentConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interpreter_intent_confidence",
			Help:    "Confidence scores produced by intent classification",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	// CacheLookupsTotal tracks response cache lookups: hit, miss, expired.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpreter_cache_lookups_total",
			Help: "Response cache lookups by result: hit, miss, expired",
		},
		[]string{"result"},
	)

	// ProviderCallsTotal tracks text-completion backend calls.
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpreter_provider_calls_total",
			Help: "Completion backend calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderLatency tracks text-completion backend call latency.
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interpreter_provider_latency_seconds",
			Help:    "Completion backend call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)

	// ExecutorCallsTotal tracks geometry executor dispatches.
	ExecutorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpreter_executor_calls_total",
			Help: "Geometry executor dispatches by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	// SessionsTotal tracks sessions created per tenant.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpreter_sessions_total",
			Help: "Sessions created",
		},
		[]string{"tenant_id"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records the outcome of one interpretation turn.
func RecordTurn(outcome string, confidence float64) {
	InterpretationsTotal.WithLabelValues(outcome).Inc()
	IntentConfidence.Observe(confidence)
}

// RecordProviderCall records a completion backend call.
func RecordProviderCall(provider, outcome string, seconds float64) {
	ProviderCallsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(seconds)
}
