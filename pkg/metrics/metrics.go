// Package metrics provides Prometheus metrics instrumentation for the
// admin HTTP surface (C14), the policy pipeline (C1-C5), the idempotency
// guard (C6/C7), the session manager (C8), and the event bus (C13).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks admin HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total admin HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total admin HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMStreamDuration tracks LLM streaming response duration.
	LLMStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_stream_duration_seconds",
			Help:    "LLM streaming response duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections on the admin
	// stream tap endpoint.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// EventBusPublishTotal tracks event bus publish attempts.
	EventBusPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_publish_total",
			Help: "Total event bus publish attempts",
		},
		[]string{"subject_kind", "result"},
	)

	// RateLimitDenied tracks admission denials from the gateway rate
	// limiter (C1), by scope (global/conversation/user).
	RateLimitDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rate_limit_denied_total",
			Help: "Total rate limit admission denials",
		},
		[]string{"scope"},
	)

	// RetryAttemptsTotal tracks retry attempts by the retry executor (C2).
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_retry_attempts_total",
			Help: "Total retry attempts across the policy pipeline",
		},
		[]string{"platform"},
	)

	// CircuitBreakerState tracks the current breaker state (C3) as a
	// gauge: 0 closed, 1 half_open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half_open, 2=open)",
		},
		[]string{"platform"},
	)

	// IdempotencyOutcomeTotal tracks idempotency guard outcomes (C6/C7):
	// completed, failed, already_processing, cache_hit.
	IdempotencyOutcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_idempotency_outcome_total",
			Help: "Total idempotency guard outcomes",
		},
		[]string{"outcome"},
	)

	// SessionsActive tracks the current count of active sessions (C8).
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_sessions_active",
			Help: "Number of currently active sessions",
		},
	)

	// PipelineErrorsTotal tracks errors emitted on the runtime's errors
	// stream (C10), by error code.
	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_pipeline_errors_total",
			Help: "Total errors emitted by the runtime orchestrator pipeline",
		},
		[]string{"platform", "code"},
	)
)

// RecordRequest records metrics for an admin HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMStream records metrics for an LLM streaming response.
func RecordLLMStream(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMStreamDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() { SSEConnectionsActive.Inc() }

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() { SSEConnectionsActive.Dec() }

// RecordEventBusPublish records one publish attempt's outcome.
func RecordEventBusPublish(subjectKind, result string) {
	EventBusPublishTotal.WithLabelValues(subjectKind, result).Inc()
}

// RecordRateLimitDenied records one admission denial.
func RecordRateLimitDenied(scope string) {
	RateLimitDenied.WithLabelValues(scope).Inc()
}

// RecordIdempotencyOutcome records one guard outcome.
func RecordIdempotencyOutcome(outcome string) {
	IdempotencyOutcomeTotal.WithLabelValues(outcome).Inc()
}

// RecordPipelineError records one orchestrator pipeline error.
func RecordPipelineError(platform, code string) {
	PipelineErrorsTotal.WithLabelValues(platform, code).Inc()
}

// SetCircuitBreakerState records the breaker's current numeric state.
func SetCircuitBreakerState(platform string, state float64) {
	CircuitBreakerState.WithLabelValues(platform).Set(state)
}
