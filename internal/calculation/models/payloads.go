package models

import "cloud.google.com/go/civil"

// Payloads are decoded from Mutation.Payload and checked with validator tags.
// Optional numeric fields are pointers so an explicit zero is distinguishable
// from an omitted value.

type CreateDossierPayload struct {
	DossierID string       `json:"dossier_id" validate:"required,max=128"`
	Person    PersonFields `json:"person"`
}

type PersonFields struct {
	Name      string      `json:"name" validate:"max=256"`
	BirthDate *civil.Date `json:"birth_date"`
}

type AddPolicyPayload struct {
	DossierID      string     `json:"dossier_id" validate:"required"`
	SchemeID       string     `json:"scheme_id" validate:"required,max=64"`
	Salary         float64    `json:"salary" validate:"gte=0"`
	PartTimeFactor *float64   `json:"part_time_factor" validate:"omitempty,gt=0,lte=1"`
	StartDate      civil.Date `json:"start_date" validate:"required"`
	AccruedValue   float64    `json:"accrued_value" validate:"gte=0"`
}

type ApplyIndexationPayload struct {
	DossierID string     `json:"dossier_id" validate:"required"`
	PolicyRef            // omitted means every policy of the dossier
	Period    civil.Date `json:"period" validate:"required"`
	Factor    float64    `json:"factor" validate:"gt=0"`
}

type CalculateRetirementBenefitPayload struct {
	DossierID       string      `json:"dossier_id" validate:"required"`
	PolicyRef                   // required
	CalculationDate *civil.Date `json:"calculation_date"`
	RetirementAge   *int        `json:"retirement_age" validate:"omitempty,gt=0,lte=100"`
}

type ProjectFutureBenefitsPayload struct {
	DossierID      string      `json:"dossier_id" validate:"required"`
	PolicyRef                  // required
	HorizonYears   *int        `json:"horizon_years" validate:"omitempty,gt=0,lte=100"`
	IndexationRate *float64    `json:"indexation_rate" validate:"omitempty,gt=-1,lte=1"`
	StartDate      *civil.Date `json:"start_date"`
	RetirementAge  *int        `json:"retirement_age" validate:"omitempty,gt=0,lte=100"`
}

// PolicyRef addresses a policy either by id or by 0-based position in the
// dossier. PolicyID wins when both are set.
type PolicyRef struct {
	PolicyID    string `json:"policy_id"`
	PolicyIndex *int   `json:"policy_index" validate:"omitempty,gte=0"`
}

// IsZero reports whether no policy was referenced.
func (r PolicyRef) IsZero() bool {
	return r.PolicyID == "" && r.PolicyIndex == nil
}
