package mutation

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"pensio/internal/calculation/models"
	"pensio/internal/scheme"
	"pensio/pkg/requestcontext"
)

// fetchRules returns the rule set for schemeID, consulting the source at most
// once per scheme per request. Later mutations see the same rule set even if
// the upstream document changes mid-request.
func fetchRules(ctx context.Context, state *models.State, source scheme.Source, schemeID string) (*scheme.RuleSet, error) {
	if rules, ok := state.RuleSet(schemeID); ok {
		return rules, nil
	}

	rules, err := source.Get(ctx, schemeID)
	if err != nil {
		return nil, sourceError(ctx, schemeID, err)
	}
	if rules == nil {
		return nil, models.NewExternalServiceError(schemeID, errors.New("source returned no rule set"))
	}
	return state.RememberRuleSet(rules.Clone()), nil
}

// sourceError maps the rule source taxonomy onto calculation error codes.
// Cancellation is decided by this request's context only; a cancellation
// surfacing from a fetch shared with another request is an upstream failure.
func sourceError(ctx context.Context, schemeID string, err error) error {
	switch {
	case ctx.Err() != nil:
		return models.NewCanceled(err)
	case scheme.IsNotFound(err):
		return models.NewSchemeNotFound(schemeID, err)
	default:
		return models.NewExternalServiceError(schemeID, err)
	}
}

// calculationDate is the payload date if given, else the request time.
func calculationDate(ctx context.Context, override *civil.Date) civil.Date {
	if override != nil && !override.IsZero() {
		return *override
	}
	return civil.DateOf(requestcontext.Now(ctx))
}
