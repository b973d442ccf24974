package mutation

import (
	"context"

	"pensio/internal/calculation/benefit"
	"pensio/internal/calculation/models"
	"pensio/internal/scheme"
)

// ProjectFutureBenefits projects one policy's benefit over a yearly horizon.
// The rule set is fetched once for all points.
type ProjectFutureBenefits struct {
	source scheme.Source
}

func NewProjectFutureBenefits(source scheme.Source) *ProjectFutureBenefits {
	return &ProjectFutureBenefits{source: source}
}

func (h *ProjectFutureBenefits) Kind() models.Kind {
	return models.KindProjectFutureBenefits
}

func (h *ProjectFutureBenefits) Apply(ctx context.Context, state *models.State, m models.Mutation) (models.MutationResult, error) {
	p, err := decodePayload[models.ProjectFutureBenefitsPayload](m)
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

	in := benefit.ProjectionInput{
		Input:          benefit.InputFromPolicy(d, policy, calculationDate(ctx, p.StartDate)),
		IndexationRate: p.IndexationRate,
	}
	if p.HorizonYears != nil {
		in.HorizonYears = *p.HorizonYears
	}
	if p.RetirementAge != nil {
		in.RetirementAge = *p.RetirementAge
	}
	projection, err := benefit.Project(in, rules)
	if err != nil {
		return models.MutationResult{}, err
	}

	out := result(m, d.DossierID, policy.PolicyID)
	out.Projection = &projection
	return out, nil
}
