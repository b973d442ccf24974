// Package scheme fetches pension scheme rule sets from an external source.
//
// Source is the contract the calculation handlers depend on. The HTTP client in
// scheme/client implements it; Retrying, Guarded and Cached decorate it. None of
// the decorators is applied by default: each is an explicit configuration choice.
package scheme

import "context"

//go:generate mockgen -source=source.go -destination=mocks/mocks.go -package=mocks Source,Cache

// Source returns the rule set for a scheme identifier.
// Errors are *SourceError; ErrorNotFound means the scheme is unknown.
type Source interface {
	Get(ctx context.Context, schemeID string) (*RuleSet, error)
}

// Cache stores rule sets across requests. Find returns sentinel.ErrNotFound
// on a miss or an expired entry.
type Cache interface {
	Find(ctx context.Context, schemeID string) (*RuleSet, error)
	Save(ctx context.Context, rules *RuleSet) error
}

// HealthChecker is implemented by sources that can probe their upstream.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, schemeID string) (*RuleSet, error)

func (f SourceFunc) Get(ctx context.Context, schemeID string) (*RuleSet, error) {
	return f(ctx, schemeID)
}
