package benefit

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pensio/internal/calculation/models"
	"pensio/internal/scheme"
)

func nlABC() *scheme.RuleSet {
	return &scheme.RuleSet{
		SchemeID:      "NL-ABC",
		Currency:      "EUR",
		AccrualRate:   0.02,
		RetirementAge: 67,
		RetirementAgeTable: []scheme.RetirementAgeFactor{
			{Age: 65, Factor: 0.9},
		},
		DefaultIndexationRate: 0.01,
	}
}

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func datePtr(y, m, d int) *civil.Date {
	v := date(y, m, d)
	return &v
}

func TestCalculate(t *testing.T) {
	t.Run("accrual over full service without birth date", func(t *testing.T) {
		in := Input{
			StartDate: date(2000, 1, 1),
			Salary:    50000,
			AsOf:      date(2026, 1, 1),
		}
		result, err := Calculate(in, nlABC())
		require.NoError(t, err)

		// 9497 days between the dates.
		assert.InDelta(t, 9497/365.25, result.Breakdown.ServiceYears, 1e-12)
		assert.Equal(t, 26001.37, result.Amount)
		assert.Equal(t, "EUR", result.Currency)
		assert.Nil(t, result.RetirementDate)
		assert.Equal(t, 1.0, result.Breakdown.PartTimeFactor)
		assert.Equal(t, 1.0, result.Breakdown.RetirementFactor)
	})

	t.Run("is deterministic", func(t *testing.T) {
		in := Input{
			BirthDate:      datePtr(1970, 3, 10),
			StartDate:      date(1995, 9, 1),
			Salary:         61234.56,
			PartTimeFactor: 0.8,
			AccruedValue:   1234.5,
			AsOf:           date(2026, 10, 16),
		}
		first, err := Calculate(in, nlABC())
		require.NoError(t, err)
		for range 10 {
			again, err := Calculate(in, nlABC())
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("service is capped at retirement date", func(t *testing.T) {
		birth := datePtr(1960, 6, 15)
		atRetirement, err := Calculate(Input{
			BirthDate: birth, StartDate: date(1990, 1, 1), Salary: 40000, AsOf: date(2027, 6, 15),
		}, nlABC())
		require.NoError(t, err)
		later, err := Calculate(Input{
			BirthDate: birth, StartDate: date(1990, 1, 1), Salary: 40000, AsOf: date(2035, 1, 1),
		}, nlABC())
		require.NoError(t, err)

		assert.Equal(t, atRetirement.Amount, later.Amount)
		assert.Equal(t, date(2027, 6, 15), *later.RetirementDate)
	})

	t.Run("start after as-of accrues nothing", func(t *testing.T) {
		result, err := Calculate(Input{
			StartDate: date(2030, 1, 1), Salary: 40000, AccruedValue: 100, AsOf: date(2026, 1, 1),
		}, nlABC())
		require.NoError(t, err)
		assert.Zero(t, result.Breakdown.ServiceYears)
		assert.Equal(t, 100.0, result.Amount)
	})

	t.Run("early retirement applies table factor", func(t *testing.T) {
		in := Input{StartDate: date(2000, 1, 1), Salary: 50000, AsOf: date(2026, 1, 1), RetirementAge: 65}
		result, err := Calculate(in, nlABC())
		require.NoError(t, err)
		assert.Equal(t, 0.9, result.Breakdown.RetirementFactor)
		assert.Equal(t, round2(0.02*(9497/365.25)*50000*0.9), result.Amount)
	})

	t.Run("age without factor is a validation error", func(t *testing.T) {
		in := Input{StartDate: date(2000, 1, 1), Salary: 50000, AsOf: date(2026, 1, 1), RetirementAge: 60}
		_, err := Calculate(in, nlABC())
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("leap day birthday retires on first of march", func(t *testing.T) {
		got := RetirementDate(datePtr(1960, 2, 29), 67)
		require.NotNil(t, got)
		assert.Equal(t, date(2027, 3, 1), *got)
	})
}

func TestServiceYears(t *testing.T) {
	assert.Zero(t, ServiceYears(date(2020, 1, 1), date(2019, 1, 1)))
	assert.Zero(t, ServiceYears(date(2020, 1, 1), date(2020, 1, 1)))
	assert.InDelta(t, 1.0, ServiceYears(date(2020, 1, 1), date(2021, 1, 1)), 0.01)
}
