package store

import (
	"context"
	"sync"
	"time"

	"pensio/internal/scheme"
	"pensio/pkg/platform/sentinel"
)

type cachedRuleSet struct {
	rules    scheme.RuleSet
	storedAt time.Time
}

// InMemoryCache keeps rule sets in process memory with TTL expiration.
type InMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]cachedRuleSet
	cacheTTL time.Duration
	now      func() time.Time
}

// MemoryOption configures an InMemoryCache.
type MemoryOption func(*InMemoryCache)

// WithClock overrides the expiry clock, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *InMemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewInMemoryCache creates a new in-memory cache with the given TTL.
func NewInMemoryCache(cacheTTL time.Duration, opts ...MemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		entries:  make(map[string]cachedRuleSet),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Save stores a rule set keyed by scheme ID.
// If rules is nil, the operation is a no-op and returns nil.
func (c *InMemoryCache) Save(_ context.Context, rules *scheme.RuleSet) error {
	if rules == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rules.SchemeID] = cachedRuleSet{rules: *rules.Clone(), storedAt: c.now()}
	return nil
}

// Find retrieves a cached rule set by scheme ID.
// Returns sentinel.ErrNotFound if absent or older than the cache TTL.
func (c *InMemoryCache) Find(_ context.Context, schemeID string) (*scheme.RuleSet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.entries[schemeID]; ok {
		if c.now().Sub(cached.storedAt) < c.cacheTTL {
			return cached.rules.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}
