package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pensio/internal/scheme"
	"pensio/pkg/platform/sentinel"
	"pensio/pkg/requestcontext"
)

const createRuleCacheTable = `
CREATE TABLE IF NOT EXISTS scheme_rule_cache (
	scheme_id  TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
)`

const selectRuleSet = `
SELECT document FROM scheme_rule_cache
WHERE scheme_id = $1 AND fetched_at > $2`

const upsertRuleSet = `
INSERT INTO scheme_rule_cache (scheme_id, document, fetched_at)
VALUES ($1, $2, $3)
ON CONFLICT (scheme_id) DO UPDATE
SET document = EXCLUDED.document, fetched_at = EXCLUDED.fetched_at`

// PostgresCache persists rule sets in PostgreSQL so they survive restarts.
type PostgresCache struct {
	db       *sql.DB
	cacheTTL time.Duration
}

// NewPostgresCache constructs a PostgreSQL-backed rule set cache.
func NewPostgresCache(db *sql.DB, cacheTTL time.Duration) *PostgresCache {
	return &PostgresCache{db: db, cacheTTL: cacheTTL}
}

// Migrate creates the cache table if it does not exist.
func (c *PostgresCache) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, createRuleCacheTable); err != nil {
		return fmt.Errorf("migrate rule set cache: %w", err)
	}
	return nil
}

func (c *PostgresCache) Find(ctx context.Context, schemeID string) (*scheme.RuleSet, error) {
	cutoff := requestcontext.Now(ctx).Add(-c.cacheTTL)

	var raw []byte
	err := c.db.QueryRowContext(ctx, selectRuleSet, schemeID, cutoff).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find rule set cache: %w", err)
	}

	var rules scheme.RuleSet
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("decode cached rule set: %w", err)
	}
	return &rules, nil
}

func (c *PostgresCache) Save(ctx context.Context, rules *scheme.RuleSet) error {
	if rules == nil {
		return fmt.Errorf("rule set is required")
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rule set: %w", err)
	}
	fetchedAt := rules.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = requestcontext.Now(ctx)
	}
	if _, err := c.db.ExecContext(ctx, upsertRuleSet, rules.SchemeID, raw, fetchedAt); err != nil {
		return fmt.Errorf("save rule set cache: %w", err)
	}
	return nil
}
