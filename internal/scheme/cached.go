package scheme

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"pensio/internal/scheme/metrics"
	"pensio/pkg/platform/sentinel"
)

// Cached serves rule sets from a cross-request cache and deduplicates
// concurrent misses for the same scheme. Cache failures degrade to an
// upstream fetch; they never fail the lookup.
//
// A shared fetch is detached from the caller that started it. Each caller
// stops waiting when its own context ends; the fetch itself is bounded by
// the fetch timeout.
type Cached struct {
	source       Source
	cache        Cache
	backend      string
	group        singleflight.Group
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// CachedOption configures a Cached source.
type CachedOption func(*Cached)

// WithFetchTimeout bounds a shared upstream fetch. Zero leaves the bound to
// the wrapped source.
func WithFetchTimeout(d time.Duration) CachedOption {
	return func(c *Cached) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewCached wraps source with cache. backend labels metrics ("memory", "redis", "postgres").
func NewCached(source Source, cache Cache, backend string, logger *slog.Logger, m *metrics.Metrics, opts ...CachedOption) *Cached {
	c := &Cached{
		source:  source,
		cache:   cache,
		backend: backend,
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Cached) Get(ctx context.Context, schemeID string) (*RuleSet, error) {
	cached, err := c.cache.Find(ctx, schemeID)
	switch {
	case err == nil:
		c.metrics.RecordCacheLookup(c.backend, "hit")
		return cached.Clone(), nil
	case errors.Is(err, sentinel.ErrNotFound):
		c.metrics.RecordCacheLookup(c.backend, "miss")
	default:
		c.metrics.RecordCacheLookup(c.backend, "error")
		if c.logger != nil {
			c.logger.WarnContext(ctx, "scheme cache lookup failed",
				"backend", c.backend,
				"scheme_id", schemeID,
				"error", err,
			)
		}
	}

	ch := c.group.DoChan(schemeID, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), schemeID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RuleSet).Clone(), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewSourceError(ErrorTimeout, schemeID, "request timed out", ctx.Err())
		}
		return nil, NewSourceError(ErrorInternal, schemeID, "request canceled", ctx.Err())
	}
}

func (c *Cached) fetch(ctx context.Context, schemeID string) (*RuleSet, error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	rules, err := c.source.Get(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Save(ctx, rules); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "scheme cache save failed",
			"backend", c.backend,
			"scheme_id", schemeID,
			"error", err,
		)
	}
	return rules, nil
}
