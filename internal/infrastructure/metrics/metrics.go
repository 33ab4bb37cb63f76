package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
)

// Lookup-server metrics, registered explicitly with the default registry.
var (
	// HTTP request counters and latency, recorded by middleware.
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Engine-level lookup counters.
	LookupsTotal   *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	LookupResults  prometheus.Histogram

	// Per-provider attempt accounting.
	ProviderAttemptsTotal   *prometheus.CounterVec
	ProviderAttemptDuration *prometheus.HistogramVec

	// Per-request circuit breaker trips.
	BreakerOpenedTotal *prometheus.CounterVec

	// MCP tool invocations.
	ToolCallsTotal   *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "lookups_total",
			Help:      "Total lookup invocations by outcome",
		},
		[]string{"outcome"},
	)

	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "lookup_duration_seconds",
			Help:      "End-to-end lookup duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"outcome"},
	)

	LookupResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "lookup_results",
			Help:      "Ranked results returned per lookup",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	ProviderAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "provider_attempts_total",
			Help:      "Query attempts by provider, stage and status",
		},
		[]string{"provider", "stage", "status"},
	)

	ProviderAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "provider_attempt_duration_seconds",
			Help:      "Executed attempt duration in seconds by provider",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	BreakerOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "breaker_opened_total",
			Help:      "Per-request circuit breaker trips by provider",
		},
		[]string{"provider"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "tool_calls_total",
			Help:      "MCP tool invocations by tool and status",
		},
		[]string{"tool", "status"},
	)

	ToolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "definitie",
			Subsystem: "lookup",
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"tool"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(LookupDuration)
	prometheus.MustRegister(LookupResults)
	prometheus.MustRegister(ProviderAttemptsTotal)
	prometheus.MustRegister(ProviderAttemptDuration)
	prometheus.MustRegister(BreakerOpenedTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolCallDuration)
	log.Info().Msg("lookup metrics registered with Prometheus")
}

// RecordRequest records one finished HTTP request.
func RecordRequest(method, path, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, path, status).Inc()
	RequestDuration.WithLabelValues(method, path).Observe(durationSec)
}

// RecordToolCall records one finished MCP tool invocation.
func RecordToolCall(tool, status string, durationSec float64) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(durationSec)
}

// EngineObserver bridges engine events onto the Prometheus collectors. It is
// stateless; a single instance serves all requests.
type EngineObserver struct{}

var _ lookup.Observer = (*EngineObserver)(nil)

// NewEngineObserver returns the metrics-backed engine observer.
func NewEngineObserver() *EngineObserver {
	return &EngineObserver{}
}

// RecordAttempt counts one recorded attempt. Skipped attempts never ran, so
// they are counted but contribute no latency sample.
func (*EngineObserver) RecordAttempt(a lookup.QueryAttempt) {
	ProviderAttemptsTotal.WithLabelValues(a.Provider, a.Stage, string(a.Status)).Inc()
	if a.Status != lookup.AttemptSkipped {
		ProviderAttemptDuration.WithLabelValues(a.Provider).Observe(a.Elapsed.Seconds())
	}
}

// RecordBreakerOpen counts a breaker trip for the provider.
func (*EngineObserver) RecordBreakerOpen(providerID string) {
	BreakerOpenedTotal.WithLabelValues(providerID).Inc()
}

// RecordLookup records one finished lookup.
func (*EngineObserver) RecordLookup(outcome string, elapsed time.Duration, results int) {
	LookupsTotal.WithLabelValues(outcome).Inc()
	LookupDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	LookupResults.Observe(float64(results))
}
