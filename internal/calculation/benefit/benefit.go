// Package benefit holds the deterministic benefit formula. Functions here
// never read the clock: the calculation date is always an input, so equal
// inputs and an equal rule set give bit-identical results.
package benefit

import (
	"math"
	"time"

	"cloud.google.com/go/civil"

	"pensio/internal/calculation/models"
	"pensio/internal/scheme"
)

// daysPerYear converts service days into fractional service years.
const daysPerYear = 365.25

// Input is the policy state a benefit is computed from.
type Input struct {
	BirthDate      *civil.Date
	StartDate      civil.Date
	Salary         float64
	PartTimeFactor float64
	AccruedValue   float64
	// RetirementAge overrides the scheme's standard age when positive.
	RetirementAge int
	AsOf          civil.Date
}

// InputFromPolicy builds an Input for a policy in a dossier.
func InputFromPolicy(d *models.Dossier, p *models.Policy, asOf civil.Date) Input {
	return Input{
		BirthDate:      d.Person.BirthDate,
		StartDate:      p.StartDate,
		Salary:         p.Salary,
		PartTimeFactor: p.PartTimeFactor,
		AccruedValue:   p.AccruedValue,
		AsOf:           asOf,
	}
}

// Calculate applies the accrual formula:
//
//	amount = round2((accrual_rate * service_years * salary * part_time_factor + accrued_value) * factor)
//
// Service runs from the start date to the earlier of AsOf and the retirement
// date. Without a birth date the retirement date is unknown and service runs
// to AsOf.
func Calculate(in Input, rules *scheme.RuleSet) (models.BenefitCalculationResult, error) {
	age := retirementAge(in, rules)
	factor, ok := rules.RetirementFactor(age)
	if !ok {
		return models.BenefitCalculationResult{}, models.NewValidationError(
			"scheme %q has no retirement factor for age %d", rules.SchemeID, age)
	}

	retirementDate := RetirementDate(in.BirthDate, age)
	serviceEnd := in.AsOf
	if retirementDate != nil && retirementDate.Before(serviceEnd) {
		serviceEnd = *retirementDate
	}
	serviceYears := ServiceYears(in.StartDate, serviceEnd)

	partTime := in.PartTimeFactor
	if partTime == 0 {
		partTime = 1
	}
	accrual := rules.AccrualRate * serviceYears * in.Salary * partTime
	breakdown := models.BenefitBreakdown{
		SchemeID:         rules.SchemeID,
		AsOf:             in.AsOf,
		AccrualRate:      rules.AccrualRate,
		ServiceYears:     serviceYears,
		Salary:           in.Salary,
		PartTimeFactor:   partTime,
		Accrual:          accrual,
		AccruedValue:     in.AccruedValue,
		RetirementAge:    age,
		RetirementFactor: factor,
	}

	return models.BenefitCalculationResult{
		Amount:         round2(unrounded(breakdown)),
		Currency:       rules.Currency,
		RetirementDate: retirementDate,
		Breakdown:      breakdown,
	}, nil
}

// unrounded is the benefit amount before rounding to cents.
func unrounded(b models.BenefitBreakdown) float64 {
	return (b.Accrual + b.AccruedValue) * b.RetirementFactor
}

// RetirementDate returns birth date plus age years, or nil without a birth date.
// A 29 February birthday retires on 1 March in non-leap years.
func RetirementDate(birth *civil.Date, age int) *civil.Date {
	if birth == nil || birth.IsZero() {
		return nil
	}
	d := addYears(*birth, age)
	return &d
}

// ServiceYears is the fractional number of years from start to end, never negative.
func ServiceYears(start, end civil.Date) float64 {
	days := end.DaysSince(start)
	if days <= 0 {
		return 0
	}
	return float64(days) / daysPerYear
}

func retirementAge(in Input, rules *scheme.RuleSet) int {
	if in.RetirementAge > 0 {
		return in.RetirementAge
	}
	return rules.RetirementAge
}

func addYears(d civil.Date, years int) civil.Date {
	return civil.DateOf(d.In(time.UTC).AddDate(years, 0, 0))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
