package scheme

import (
	"fmt"
	"time"
)

// RetirementAgeFactor adjusts a benefit for retiring at a given age.
// Factors below 1 discount early retirement, above 1 reward late retirement.
type RetirementAgeFactor struct {
	Age    int     `json:"age"`
	Factor float64 `json:"factor"`
}

// IndexationRate is the assumed indexation for one calendar year.
type IndexationRate struct {
	Year int     `json:"year"`
	Rate float64 `json:"rate"`
}

// RuleSet holds the actuarial parameters of one pension scheme. A rule set
// fetched during a request is treated as immutable; callers that need to
// change one must Clone it first.
type RuleSet struct {
	SchemeID               string                `json:"scheme_id"`
	Name                   string                `json:"name,omitempty"`
	Version                string                `json:"version,omitempty"`
	Currency               string                `json:"currency"`
	AccrualRate            float64               `json:"accrual_rate"`
	RetirementAge          int                   `json:"retirement_age"`
	RetirementAgeTable     []RetirementAgeFactor `json:"retirement_age_table,omitempty"`
	IndexationTable        []IndexationRate      `json:"indexation_table,omitempty"`
	DefaultIndexationRate  float64               `json:"default_indexation_rate"`
	ProjectionHorizonYears int                   `json:"projection_horizon_years,omitempty"`
	FetchedAt              time.Time             `json:"fetched_at"`
}

const defaultCurrency = "EUR"

// Validate checks the invariants every calculation relies on.
func (r *RuleSet) Validate() error {
	if r.SchemeID == "" {
		return fmt.Errorf("scheme_id is required")
	}
	if r.AccrualRate <= 0 || r.AccrualRate > 1 {
		return fmt.Errorf("accrual_rate must be in (0, 1], got %v", r.AccrualRate)
	}
	if r.RetirementAge <= 0 || r.RetirementAge > 100 {
		return fmt.Errorf("retirement_age must be in (0, 100], got %d", r.RetirementAge)
	}
	seen := make(map[int]struct{}, len(r.RetirementAgeTable))
	for _, entry := range r.RetirementAgeTable {
		if entry.Factor <= 0 {
			return fmt.Errorf("retirement factor for age %d must be positive", entry.Age)
		}
		if _, dup := seen[entry.Age]; dup {
			return fmt.Errorf("duplicate retirement factor for age %d", entry.Age)
		}
		seen[entry.Age] = struct{}{}
	}
	if r.ProjectionHorizonYears < 0 {
		return fmt.Errorf("projection_horizon_years must not be negative")
	}
	return nil
}

// ApplyDefaults fills optional fields the upstream may omit.
func (r *RuleSet) ApplyDefaults() {
	if r.Currency == "" {
		r.Currency = defaultCurrency
	}
}

// RetirementFactor returns the adjustment for retiring at age. The standard
// retirement age has an implicit factor of 1 unless the table overrides it.
func (r *RuleSet) RetirementFactor(age int) (float64, bool) {
	for _, entry := range r.RetirementAgeTable {
		if entry.Age == age {
			return entry.Factor, true
		}
	}
	if age == r.RetirementAge {
		return 1, true
	}
	return 0, false
}

// IndexationRateFor returns the scheme's assumed rate for a calendar year,
// falling back to the default rate.
func (r *RuleSet) IndexationRateFor(year int) float64 {
	for _, entry := range r.IndexationTable {
		if entry.Year == year {
			return entry.Rate
		}
	}
	return r.DefaultIndexationRate
}

// Clone returns a deep copy.
func (r *RuleSet) Clone() *RuleSet {
	if r == nil {
		return nil
	}
	out := *r
	out.RetirementAgeTable = append([]RetirementAgeFactor(nil), r.RetirementAgeTable...)
	out.IndexationTable = append([]IndexationRate(nil), r.IndexationTable...)
	return &out
}
