package mutation

import (
	"context"

	"pensio/internal/calculation/models"
)

// ApplyIndexation multiplies accrued value by a factor. Each application is a
// distinct indexation event, so applying the same mutation twice compounds.
type ApplyIndexation struct{}

func NewApplyIndexation() *ApplyIndexation { return &ApplyIndexation{} }

func (h *ApplyIndexation) Kind() models.Kind { return models.KindApplyIndexation }

func (h *ApplyIndexation) Apply(_ context.Context, state *models.State, m models.Mutation) (models.MutationResult, error) {
	p, err := decodePayload[models.ApplyIndexationPayload](m)
	if err != nil {
		return models.MutationResult{}, err
	}
	d, err := lookupDossier(state, p.DossierID)
	if err != nil {
		return models.MutationResult{}, err
	}

	targets, err := indexationTargets(d, p.PolicyRef)
	if err != nil {
		return models.MutationResult{}, err
	}

	adjustment := models.IndexationAdjustment{Period: p.Period, Factor: p.Factor}
	ids := make([]string, 0, len(targets))
	for _, policy := range targets {
		policy.AccruedValue *= p.Factor
		policy.Indexations = append(policy.Indexations, adjustment)
		ids = append(ids, policy.PolicyID)
	}
	return result(m, d.DossierID, ids...), nil
}

// indexationTargets resolves the referenced policy, or every policy of the
// dossier when none is referenced. A dossier without policies has nothing to
// index and is reported as a missing policy.
func indexationTargets(d *models.Dossier, ref models.PolicyRef) ([]*models.Policy, error) {
	if !ref.IsZero() {
		p, err := lookupPolicy(d, ref)
		if err != nil {
			return nil, err
		}
		return []*models.Policy{p}, nil
	}
	if len(d.Policies) == 0 {
		return nil, models.NewPolicyNotFound(d.DossierID, "(none)")
	}
	out := make([]*models.Policy, len(d.Policies))
	for i := range d.Policies {
		out[i] = &d.Policies[i]
	}
	return out, nil
}
