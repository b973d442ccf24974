package handler

import (
	"fmt"

	"pensio/internal/calculation/models"
	dErrors "pensio/pkg/domain-errors"
)

// maxMutations bounds the work a single request can demand.
const maxMutations = 1000

// CalculationRequest is the HTTP request body for POST /calculation-requests.
type CalculationRequest struct {
	Mutations []models.Mutation `json:"mutations"`
}

// Validate rejects a missing or empty mutation list before anything runs.
// Implements the Preparable interface for httputil.DecodeAndPrepare.
func (r *CalculationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Mutations) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "mutations must contain at least one mutation")
	}
	if len(r.Mutations) > maxMutations {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("mutations must contain at most %d mutations", maxMutations))
	}
	return nil
}

// ToModel converts the body into an engine request.
func (r *CalculationRequest) ToModel() models.Request {
	return models.Request{Mutations: r.Mutations}
}
