package benefit

import (
	"cloud.google.com/go/civil"

	"pensio/internal/calculation/models"
	"pensio/internal/scheme"
)

// ProjectionInput extends Input with the projection parameters. Input.AsOf is
// the projection start; points fall on its anniversaries.
type ProjectionInput struct {
	Input
	// HorizonYears overrides the scheme horizon when positive.
	HorizonYears int
	// IndexationRate overrides the scheme's indexation table when set.
	IndexationRate *float64
}

// Project returns one point per year after the start date. The horizon is the
// payload value, else the scheme's projection_horizon_years, else the whole
// years remaining until retirement (at least one). Each point uses the
// Calculate formula at its date and compounds the assumed indexation of every
// year up to and including it, rounding to cents once at the end.
func Project(in ProjectionInput, rules *scheme.RuleSet) (models.ProjectionResult, error) {
	horizon, err := projectionHorizon(in, rules)
	if err != nil {
		return models.ProjectionResult{}, err
	}

	points := make([]models.ProjectionPoint, 0, horizon)
	cumulative := 1.0
	var retirementDate *civil.Date
	for i := 1; i <= horizon; i++ {
		at := addYears(in.AsOf, i)
		cumulative *= 1 + indexationRate(in, rules, at.Year)

		step := in.Input
		step.AsOf = at
		result, err := Calculate(step, rules)
		if err != nil {
			return models.ProjectionResult{}, err
		}
		retirementDate = result.RetirementDate

		points = append(points, models.ProjectionPoint{
			Date:                 at,
			EstimatedAmount:      round2(unrounded(result.Breakdown) * cumulative),
			CumulativeIndexation: cumulative,
		})
	}

	return models.ProjectionResult{
		Currency:       rules.Currency,
		RetirementDate: retirementDate,
		Points:         points,
	}, nil
}

func projectionHorizon(in ProjectionInput, rules *scheme.RuleSet) (int, error) {
	if in.HorizonYears > 0 {
		return in.HorizonYears, nil
	}
	if rules.ProjectionHorizonYears > 0 {
		return rules.ProjectionHorizonYears, nil
	}
	retirement := RetirementDate(in.BirthDate, retirementAge(in.Input, rules))
	if retirement == nil {
		return 0, models.NewValidationError("horizon_years is required when the dossier has no birth date")
	}
	years := wholeYearsBetween(in.AsOf, *retirement)
	if years < 1 {
		years = 1
	}
	return years, nil
}

func indexationRate(in ProjectionInput, rules *scheme.RuleSet, year int) float64 {
	if in.IndexationRate != nil {
		return *in.IndexationRate
	}
	return rules.IndexationRateFor(year)
}

func wholeYearsBetween(from, to civil.Date) int {
	years := to.Year - from.Year
	if years > 0 && addYears(from, years).After(to) {
		years--
	}
	return years
}
