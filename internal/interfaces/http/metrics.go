// Package http exposes the evaluation engine's health and Prometheus metrics
// endpoints, adapted from internal/interfaces/http/metrics.go: a registry of
// counters/histograms/gauges generalized from the teacher's scan-pipeline
// vocabulary (steps, regimes, cache) to swingmaster's evaluation vocabulary
// (states, transitions, gate blocks, EW scoring writes).
package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds all Prometheus metrics for the swingmaster engine.
// Unlike the teacher's registry, which registers onto the global default
// registerer, this one carries its own prometheus.Registry so that
// constructing more than one MetricsRegistry in one process (as the test
// suite does; the monitor command builds one of its own) never collides on
// duplicate metric names.
type MetricsRegistry struct {
	registry *prometheus.Registry

	EvaluationDuration *prometheus.HistogramVec
	EvaluationsTotal   *prometheus.CounterVec

	StateTransitions  *prometheus.CounterVec
	GuardrailBlocks   *prometheus.CounterVec
	CurrentState      *prometheus.GaugeVec
	DataInsufficient  *prometheus.CounterVec

	EWScoreWrites *prometheus.CounterVec
	EWScoreLevel  *prometheus.HistogramVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	BreakerTrips *prometheus.CounterVec
}

// NewMetricsRegistry creates a new metrics registry with all swingmaster
// metrics and registers them with its own private Prometheus registry.
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	registry := &MetricsRegistry{
		registry: reg,
		EvaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swingmaster_evaluation_duration_seconds",
				Help:    "Duration of a single (ticker, as_of_date) evaluation in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"result"},
		),

		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_evaluations_total",
				Help: "Total number of (ticker, as_of_date) evaluations performed",
			},
			[]string{"result"},
		),

		StateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_state_transitions_total",
				Help: "Total number of state transitions by from/to state",
			},
			[]string{"from_state", "to_state"},
		),

		GuardrailBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_guardrail_blocks_total",
				Help: "Total number of proposed transitions blocked by a guardrail",
			},
			[]string{"guardrail"},
		),

		CurrentState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "swingmaster_current_state",
				Help: "Current state for a ticker as a numeric code (see state glossary)",
			},
			[]string{"ticker", "state"},
		),

		DataInsufficient: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_data_insufficient_total",
				Help: "Total number of evaluations that short-circuited on insufficient OHLC history",
			},
			[]string{"ticker"},
		),

		EWScoreWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_ew_score_writes_total",
				Help: "Total number of EW score UPSERTs by column group",
			},
			[]string{"mode"},
		),

		EWScoreLevel: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swingmaster_ew_score_level",
				Help:    "Distribution of EW score levels (0-3) written by mode",
				Buckets: []float64{0, 1, 2, 3},
			},
			[]string{"mode"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_cache_hits_total",
				Help: "Total number of OHLC cache hits",
			},
			[]string{"source"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_cache_misses_total",
				Help: "Total number of OHLC cache misses",
			},
			[]string{"source"},
		),

		BreakerTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingmaster_breaker_trips_total",
				Help: "Total number of circuit breaker trips by OHLC provider",
			},
			[]string{"provider"},
		),
	}

	reg.MustRegister(
		registry.EvaluationDuration,
		registry.EvaluationsTotal,
		registry.StateTransitions,
		registry.GuardrailBlocks,
		registry.CurrentState,
		registry.DataInsufficient,
		registry.EWScoreWrites,
		registry.EWScoreLevel,
		registry.CacheHits,
		registry.CacheMisses,
		registry.BreakerTrips,
	)

	return registry
}

// RecordTransition records a state transition and updates the ticker's
// current-state gauge.
func (m *MetricsRegistry) RecordTransition(ticker, fromState, toState string, stateCode float64) {
	m.StateTransitions.WithLabelValues(fromState, toState).Inc()
	m.CurrentState.WithLabelValues(ticker, toState).Set(stateCode)
}

// RecordGuardrailBlock records a guardrail rejecting a proposed transition.
func (m *MetricsRegistry) RecordGuardrailBlock(guardrail string) {
	m.GuardrailBlocks.WithLabelValues(guardrail).Inc()
}

// RecordDataInsufficient records an evaluation short-circuiting on
// insufficient OHLC history.
func (m *MetricsRegistry) RecordDataInsufficient(ticker string) {
	m.DataInsufficient.WithLabelValues(ticker).Inc()
}

// RecordEWScoreWrite records an EW score UPSERT for the given column-group
// mode ("legacy", "fastpass", "rolling") and its resulting level.
func (m *MetricsRegistry) RecordEWScoreWrite(mode string, level int) {
	m.EWScoreWrites.WithLabelValues(mode).Inc()
	m.EWScoreLevel.WithLabelValues(mode).Observe(float64(level))
}

// RecordCacheHit records an OHLC cache hit for source.
func (m *MetricsRegistry) RecordCacheHit(source string) {
	m.CacheHits.WithLabelValues(source).Inc()
}

// RecordCacheMiss records an OHLC cache miss for source.
func (m *MetricsRegistry) RecordCacheMiss(source string) {
	m.CacheMisses.WithLabelValues(source).Inc()
}

// RecordBreakerTrip records a circuit breaker trip for provider.
func (m *MetricsRegistry) RecordBreakerTrip(provider string) {
	m.BreakerTrips.WithLabelValues(provider).Inc()
}

// MetricsHandler returns an HTTP handler exposing this registry's metrics.
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
