package scheme

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrying retries retryable source failures (timeouts, outages, rate limits)
// with exponential backoff. Not-found and bad-data errors are returned at once.
type Retrying struct {
	source     Source
	maxRetries int
	initial    time.Duration
	max        time.Duration
	logger     *slog.Logger
}

// NewRetrying wraps source with up to maxRetries additional attempts.
func NewRetrying(source Source, maxRetries int, initial time.Duration, logger *slog.Logger) *Retrying {
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	return &Retrying{
		source:     source,
		maxRetries: maxRetries,
		initial:    initial,
		max:        2 * time.Second,
		logger:     logger,
	}
}

func (r *Retrying) Get(ctx context.Context, schemeID string) (*RuleSet, error) {
	var rules *RuleSet
	attempt := 0
	op := func() error {
		attempt++
		got, err := r.source.Get(ctx, schemeID)
		if err != nil {
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			if r.logger != nil {
				r.logger.WarnContext(ctx, "scheme fetch failed, retrying",
					"scheme_id", schemeID,
					"attempt", attempt,
					"error", err,
				)
			}
			return err
		}
		rules = got
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.initial
	exp.MaxInterval = r.max
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.maxRetries)), ctx)

	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return rules, nil
}
