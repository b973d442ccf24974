package mutation

import (
	"context"

	"pensio/internal/calculation/benefit"
	"pensio/internal/calculation/models"
	"pensio/internal/scheme"
)

// CalculateRetirementBenefit computes the benefit of one policy from the
// scheme's rule set.
type CalculateRetirementBenefit struct {
	source scheme.Source
}

func NewCalculateRetirementBenefit(source scheme.Source) *CalculateRetirementBenefit {
	return &CalculateRetirementBenefit{source: source}
}

func (h *CalculateRetirementBenefit) Kind() models.Kind {
	return models.KindCalculateRetirementBenefit
}

func (h *CalculateRetirementBenefit) Apply(ctx context.Context, state *models.State, m models.Mutation) (models.MutationResult, error) {
	p, err := decodePayload[models.CalculateRetirementBenefitPayload](m)
	if err != nil {
		return models.MutationResult{}, err
	}
	d, err := lookupDossier(state, p.DossierID)
	if err != nil {
		return models.MutationResult{}, err
	}
	policy, err := lookupPolicy(d, p.PolicyRef)
	if err != nil {
		return models.MutationResult{}, err
	}

	rules, err := fetchRules(ctx, state, h.source, policy.SchemeID)
	if err != nil {
		return models.MutationResult{}, err
	}

	in := benefit.InputFromPolicy(d, policy, calculationDate(ctx, p.CalculationDate))
	if p.RetirementAge != nil {
		in.RetirementAge = *p.RetirementAge
	}
	calc, err := benefit.Calculate(in, rules)
	if err != nil {
		return models.MutationResult{}, err
	}

	out := result(m, d.DossierID, policy.PolicyID)
	out.Benefit = &calc
	return out, nil
}
