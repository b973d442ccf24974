package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the calculation pipeline.
type Metrics struct {
	// Per-mutation handler latency by kind and outcome
	MutationLatency *prometheus.HistogramVec

	// Processed requests by outcome ("ok" or the failing error code)
	RequestOutcome *prometheus.CounterVec

	// Overall request processing latency
	ProcessLatency prometheus.Histogram

	// Mutations per request
	RequestSize prometheus.Histogram
}

// New creates the calculation metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MutationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pensio_mutation_duration_seconds",
			Help:    "Duration of individual mutation handlers by kind and outcome",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"kind", "outcome"}),

		RequestOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pensio_calculation_requests_total",
			Help: "Processed calculation requests by outcome",
		}, []string{"outcome"}),

		ProcessLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pensio_calculation_duration_seconds",
			Help:    "Duration of full calculation request processing including rule fetches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		RequestSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pensio_calculation_mutations",
			Help:    "Number of mutations per calculation request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
}

// ObserveMutation records one handler invocation.
func (m *Metrics) ObserveMutation(kind, outcome string, d time.Duration) {
	if m != nil {
		m.MutationLatency.WithLabelValues(kind, outcome).Observe(d.Seconds())
	}
}

// IncrementOutcome records a request outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.RequestOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveProcess records the total processing duration and request size.
func (m *Metrics) ObserveProcess(mutations int, d time.Duration) {
	if m != nil {
		m.ProcessLatency.Observe(d.Seconds())
		m.RequestSize.Observe(float64(mutations))
	}
}
