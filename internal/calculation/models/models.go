package models

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
)

// Kind discriminates mutations. The set is closed: every Kind in AllKinds
// must have exactly one registered handler before the service accepts traffic.
type Kind string

const (
	KindCreateDossier              Kind = "create_dossier"
	KindAddPolicy                  Kind = "add_policy"
	KindApplyIndexation            Kind = "apply_indexation"
	KindCalculateRetirementBenefit Kind = "calculate_retirement_benefit"
	KindProjectFutureBenefits      Kind = "project_future_benefits"
)

// AllKinds lists the built-in mutation kinds in documentation order.
var AllKinds = []Kind{
	KindCreateDossier,
	KindAddPolicy,
	KindApplyIndexation,
	KindCalculateRetirementBenefit,
	KindProjectFutureBenefits,
}

func (k Kind) String() string {
	return string(k)
}

// Mutation is one instruction in a request's ordered list. Payload is decoded
// by the handler registered for Kind.
type Mutation struct {
	MutationID string          `json:"mutation_id"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
}

// Request is an ordered list of mutations applied to fresh working state.
type Request struct {
	Mutations []Mutation `json:"mutations"`
}

// Response carries one result per mutation and the final dossier state.
type Response struct {
	Results     []MutationResult `json:"results"`
	Dossiers    []Dossier        `json:"dossiers"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// MutationResult is what a single handler produced. Benefit and Projection
// are set only by the two calculation kinds.
type MutationResult struct {
	MutationID string                    `json:"mutation_id"`
	Kind       Kind                      `json:"kind"`
	DossierID  string                    `json:"dossier_id,omitempty"`
	PolicyIDs  []string                  `json:"policy_ids,omitempty"`
	Benefit    *BenefitCalculationResult `json:"benefit,omitempty"`
	Projection *ProjectionResult         `json:"projection,omitempty"`
}

// Person holds the demographic fields of a dossier.
type Person struct {
	Name      string      `json:"name,omitempty"`
	BirthDate *civil.Date `json:"birth_date"`
}

// Dossier is a policyholder's benefit record.
type Dossier struct {
	DossierID string   `json:"dossier_id"`
	Person    Person   `json:"person"`
	Policies  []Policy `json:"policies"`
}

// Policy returns the policy with the given id.
func (d *Dossier) Policy(policyID string) (*Policy, bool) {
	for i := range d.Policies {
		if d.Policies[i].PolicyID == policyID {
			return &d.Policies[i], true
		}
	}
	return nil, false
}

// clone returns a deep copy so snapshots do not alias working state.
func (d *Dossier) clone() Dossier {
	out := *d
	if d.Person.BirthDate != nil {
		bd := *d.Person.BirthDate
		out.Person.BirthDate = &bd
	}
	out.Policies = make([]Policy, len(d.Policies))
	for i, p := range d.Policies {
		p.Indexations = append([]IndexationAdjustment(nil), p.Indexations...)
		out.Policies[i] = p
	}
	return out
}

// Policy is one pension entitlement within a dossier.
type Policy struct {
	PolicyID       string                 `json:"policy_id"`
	SchemeID       string                 `json:"scheme_id"`
	Salary         float64                `json:"salary"`
	PartTimeFactor float64                `json:"part_time_factor"`
	StartDate      civil.Date             `json:"start_date"`
	AccruedValue   float64                `json:"accrued_value"`
	Indexations    []IndexationAdjustment `json:"indexations,omitempty"`
}

// IndexationAdjustment records one applied index factor. The factor is
// already folded into the policy's accrued value.
type IndexationAdjustment struct {
	Period civil.Date `json:"period"`
	Factor float64    `json:"factor"`
}

// BenefitCalculationResult is the output of a retirement benefit calculation.
type BenefitCalculationResult struct {
	Amount         float64          `json:"amount"`
	Currency       string           `json:"currency"`
	RetirementDate *civil.Date      `json:"retirement_date"`
	Breakdown      BenefitBreakdown `json:"breakdown"`
}

// BenefitBreakdown lists every term of the benefit formula.
type BenefitBreakdown struct {
	SchemeID         string     `json:"scheme_id"`
	AsOf             civil.Date `json:"as_of"`
	AccrualRate      float64    `json:"accrual_rate"`
	ServiceYears     float64    `json:"service_years"`
	Salary           float64    `json:"salary"`
	PartTimeFactor   float64    `json:"part_time_factor"`
	Accrual          float64    `json:"accrual"`
	AccruedValue     float64    `json:"accrued_value"`
	RetirementAge    int        `json:"retirement_age"`
	RetirementFactor float64    `json:"retirement_factor"`
}

// ProjectionPoint is the estimated benefit at one future date.
type ProjectionPoint struct {
	Date                 civil.Date `json:"date"`
	EstimatedAmount      float64    `json:"estimated_amount"`
	CumulativeIndexation float64    `json:"cumulative_indexation"`
}

// ProjectionResult is a finite sequence of points in ascending date order.
type ProjectionResult struct {
	Currency       string            `json:"currency"`
	RetirementDate *civil.Date       `json:"retirement_date"`
	Points         []ProjectionPoint `json:"points"`
}
