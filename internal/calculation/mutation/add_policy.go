package mutation

import (
	"context"
	"fmt"

	"pensio/internal/calculation/models"
)

// AddPolicy appends a policy to an existing dossier. It performs no I/O.
type AddPolicy struct{}

func NewAddPolicy() *AddPolicy { return &AddPolicy{} }

func (h *AddPolicy) Kind() models.Kind { return models.KindAddPolicy }

func (h *AddPolicy) Apply(_ context.Context, state *models.State, m models.Mutation) (models.MutationResult, error) {
	p, err := decodePayload[models.AddPolicyPayload](m)
	if err != nil {
		return models.MutationResult{}, err
	}
	d, err := lookupDossier(state, p.DossierID)
	if err != nil {
		return models.MutationResult{}, err
	}

	partTime := 1.0
	if p.PartTimeFactor != nil {
		partTime = *p.PartTimeFactor
	}
	policy := models.Policy{
		PolicyID:       fmt.Sprintf("%s-%d", d.DossierID, len(d.Policies)+1),
		SchemeID:       p.SchemeID,
		Salary:         p.Salary,
		PartTimeFactor: partTime,
		StartDate:      p.StartDate,
		AccruedValue:   p.AccruedValue,
	}
	d.Policies = append(d.Policies, policy)
	return result(m, d.DossierID, policy.PolicyID), nil
}
