package mutation

import (
	"context"

	"pensio/internal/calculation/models"
)

// CreateDossier inserts an empty dossier into working state.
type CreateDossier struct {
	overwrite bool
}

// NewCreateDossier returns the create_dossier handler. With overwrite false a
// repeated dossier id is a validation error; with overwrite true the earlier
// dossier is replaced.
func NewCreateDossier(overwrite bool) *CreateDossier {
	return &CreateDossier{overwrite: overwrite}
}

func (h *CreateDossier) Kind() models.Kind { return models.KindCreateDossier }

func (h *CreateDossier) Apply(_ context.Context, state *models.State, m models.Mutation) (models.MutationResult, error) {
	p, err := decodePayload[models.CreateDossierPayload](m)
	if err != nil {
		return models.MutationResult{}, err
	}
	if _, exists := state.Dossier(p.DossierID); exists && !h.overwrite {
		return models.MutationResult{}, models.NewValidationError("dossier %q already exists", p.DossierID)
	}

	state.PutDossier(&models.Dossier{
		DossierID: p.DossierID,
		Person: models.Person{
			Name:      p.Person.Name,
			BirthDate: p.Person.BirthDate,
		},
		Policies: []models.Policy{},
	})
	return result(m, p.DossierID), nil
}
