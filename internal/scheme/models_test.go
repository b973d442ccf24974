package scheme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRuleSet() *RuleSet {
	return &RuleSet{
		SchemeID:      "NL-ABC",
		Currency:      "EUR",
		AccrualRate:   0.02,
		RetirementAge: 67,
		RetirementAgeTable: []RetirementAgeFactor{
			{Age: 65, Factor: 0.9},
			{Age: 68, Factor: 1.05},
		},
		IndexationTable:       []IndexationRate{{Year: 2027, Rate: 0.015}},
		DefaultIndexationRate: 0.01,
	}
}

func TestRuleSetValidate(t *testing.T) {
	require.NoError(t, validRuleSet().Validate())

	tests := []struct {
		name   string
		mutate func(*RuleSet)
		want   string
	}{
		{"missing scheme id", func(r *RuleSet) { r.SchemeID = "" }, "scheme_id"},
		{"zero accrual rate", func(r *RuleSet) { r.AccrualRate = 0 }, "accrual_rate"},
		{"accrual rate above one", func(r *RuleSet) { r.AccrualRate = 1.5 }, "accrual_rate"},
		{"zero retirement age", func(r *RuleSet) { r.RetirementAge = 0 }, "retirement_age"},
		{"non-positive factor", func(r *RuleSet) { r.RetirementAgeTable[0].Factor = 0 }, "age 65"},
		{"duplicate factor", func(r *RuleSet) {
			r.RetirementAgeTable = append(r.RetirementAgeTable, RetirementAgeFactor{Age: 65, Factor: 0.95})
		}, "duplicate"},
		{"negative horizon", func(r *RuleSet) { r.ProjectionHorizonYears = -1 }, "projection_horizon_years"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := validRuleSet()
			tt.mutate(rules)
			err := rules.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRuleSetRetirementFactor(t *testing.T) {
	rules := validRuleSet()

	factor, ok := rules.RetirementFactor(65)
	assert.True(t, ok)
	assert.Equal(t, 0.9, factor)

	factor, ok = rules.RetirementFactor(67)
	assert.True(t, ok, "standard age has an implicit factor")
	assert.Equal(t, 1.0, factor)

	_, ok = rules.RetirementFactor(60)
	assert.False(t, ok)

	rules.RetirementAgeTable = append(rules.RetirementAgeTable, RetirementAgeFactor{Age: 67, Factor: 0.98})
	factor, _ = rules.RetirementFactor(67)
	assert.Equal(t, 0.98, factor, "table overrides the implicit standard factor")
}

func TestRuleSetIndexationRateFor(t *testing.T) {
	rules := validRuleSet()
	assert.Equal(t, 0.015, rules.IndexationRateFor(2027))
	assert.Equal(t, 0.01, rules.IndexationRateFor(2030))
}

func TestRuleSetClone(t *testing.T) {
	original := validRuleSet()
	clone := original.Clone()
	clone.RetirementAgeTable[0].Factor = 0.5
	clone.IndexationTable[0].Rate = 0.5

	assert.Equal(t, 0.9, original.RetirementAgeTable[0].Factor)
	assert.Equal(t, 0.015, original.IndexationTable[0].Rate)

	var nilRules *RuleSet
	assert.Nil(t, nilRules.Clone())
}

func TestRuleSetApplyDefaults(t *testing.T) {
	rules := &RuleSet{}
	rules.ApplyDefaults()
	assert.Equal(t, "EUR", rules.Currency)

	rules = &RuleSet{Currency: "USD"}
	rules.ApplyDefaults()
	assert.Equal(t, "USD", rules.Currency)
}
