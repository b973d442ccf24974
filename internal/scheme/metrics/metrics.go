package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for scheme rule fetching.
type Metrics struct {
	// Upstream fetch latency by outcome category ("ok", "not_found", "timeout", ...)
	FetchLatency *prometheus.HistogramVec

	// Cross-request cache lookups by backend and result
	CacheLookups *prometheus.CounterVec

	// Circuit breaker transitions
	BreakerTransitions *prometheus.CounterVec
}

// New creates the scheme metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pensio_scheme_fetch_duration_seconds",
			Help:    "Duration of scheme rule set fetches from the upstream source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pensio_scheme_cache_lookups_total",
			Help: "Scheme rule cache lookups by backend and result",
		}, []string{"backend", "result"}), // result: "hit", "miss", "error"

		BreakerTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pensio_scheme_breaker_transitions_total",
			Help: "Scheme source circuit breaker state transitions",
		}, []string{"to"}),
	}
}

// ObserveFetch records one upstream fetch.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// RecordCacheLookup records a cache hit, miss or error for a backend.
func (m *Metrics) RecordCacheLookup(backend, result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(backend, result).Inc()
	}
}

// RecordBreakerTransition records the breaker moving to "open" or "closed".
func (m *Metrics) RecordBreakerTransition(to string) {
	if m != nil {
		m.BreakerTransitions.WithLabelValues(to).Inc()
	}
}
