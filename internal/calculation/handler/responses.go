package handler

import (
	"time"

	"pensio/internal/calculation/models"
)

// CalculationResponse is the success body of POST /calculation-requests.
type CalculationResponse struct {
	RequestID   string                  `json:"request_id,omitempty"`
	Results     []models.MutationResult `json:"results"`
	Dossiers    []models.Dossier        `json:"dossiers"`
	ProcessedAt time.Time               `json:"processed_at"`
}

// FromResponse converts an engine response to the HTTP body.
func FromResponse(requestID string, resp *models.Response) *CalculationResponse {
	return &CalculationResponse{
		RequestID:   requestID,
		Results:     resp.Results,
		Dossiers:    resp.Dossiers,
		ProcessedAt: resp.ProcessedAt,
	}
}
