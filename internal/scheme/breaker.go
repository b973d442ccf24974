package scheme

import (
	"context"
	"log/slog"

	"pensio/internal/scheme/metrics"
	"pensio/pkg/platform/circuit"
	"pensio/pkg/platform/sentinel"
)

// Guarded puts a circuit breaker in front of a source. While the circuit is
// open, Get fails fast with ErrorProviderOutage instead of calling upstream.
// Only availability failures count against the breaker; a not-found answer
// proves the upstream is healthy.
type Guarded struct {
	source  Source
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewGuarded wraps source with breaker.
func NewGuarded(source Source, breaker *circuit.Breaker, logger *slog.Logger, m *metrics.Metrics) *Guarded {
	return &Guarded{source: source, breaker: breaker, logger: logger, metrics: m}
}

func (g *Guarded) Get(ctx context.Context, schemeID string) (*RuleSet, error) {
	if !g.breaker.Allow() {
		return nil, NewSourceError(ErrorProviderOutage, schemeID, "circuit open", sentinel.ErrUnavailable)
	}

	rules, err := g.source.Get(ctx, schemeID)
	if err != nil && countsAsFailure(err) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.metrics.RecordBreakerTransition("open")
			if g.logger != nil {
				g.logger.WarnContext(ctx, "scheme source circuit opened",
					"breaker", g.breaker.Name(),
					"scheme_id", schemeID,
					"error", err,
				)
			}
		}
		return nil, err
	}

	if ctx.Err() == nil {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.metrics.RecordBreakerTransition("closed")
			if g.logger != nil {
				g.logger.InfoContext(ctx, "scheme source circuit closed", "breaker", g.breaker.Name())
			}
		}
	}
	return rules, err
}

func countsAsFailure(err error) bool {
	switch GetCategory(err) {
	case ErrorTimeout, ErrorProviderOutage, ErrorRateLimited:
		return true
	default:
		return false
	}
}
