package audit

import "time"

// Action names the outcome of one processed calculation request.
type Action string

const (
	ActionCalculationCompleted Action = "calculation_completed"
	ActionCalculationFailed    Action = "calculation_failed"
)

// Event is emitted once per processed calculation request. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time     `json:"timestamp"`
	RequestID      string        `json:"request_id,omitempty"`
	Action         Action        `json:"action"`
	MutationCount  int           `json:"mutation_count"`
	AppliedCount   int           `json:"applied_count"`
	DossierIDs     []string      `json:"dossier_ids,omitempty"`
	ErrorCode      string        `json:"error_code,omitempty"`
	FailedMutation string        `json:"failed_mutation,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
}
