package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pensio/internal/scheme"
	"pensio/pkg/platform/sentinel"
)

const ruleSetKeyPrefix = "scheme:rules:"

// RedisCache shares rule sets between service instances through Redis.
// Expiry is delegated to Redis key TTLs.
type RedisCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

// NewRedisCache constructs a Redis-backed rule set cache.
func NewRedisCache(client *redis.Client, cacheTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, cacheTTL: cacheTTL}
}

func (c *RedisCache) Find(ctx context.Context, schemeID string) (*scheme.RuleSet, error) {
	raw, err := c.client.Get(ctx, ruleSetKeyPrefix+schemeID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find rule set cache: %w", err)
	}

	var rules scheme.RuleSet
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("decode cached rule set: %w", err)
	}
	return &rules, nil
}

func (c *RedisCache) Save(ctx context.Context, rules *scheme.RuleSet) error {
	if rules == nil {
		return fmt.Errorf("rule set is required")
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rule set: %w", err)
	}
	if err := c.client.Set(ctx, ruleSetKeyPrefix+rules.SchemeID, raw, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("save rule set cache: %w", err)
	}
	return nil
}
