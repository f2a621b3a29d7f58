package curve

import (
	"errors"
	"math"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = civil.Date{Year: 2024, Month: 3, Day: 15}

func point(m entity.Maturity, y float64) entity.YieldCurvePoint {
	return entity.NewYieldCurvePoint(m, y, testDate)
}

func exampleCurve(t *testing.T) *YieldCurve {
	t.Helper()
	c, err := New([]entity.YieldCurvePoint{
		point(entity.TenYears, 4.35),
		point(entity.OneYear, 4.50),
		point(entity.FiveYears, 4.20),
	})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("Sorts by maturity", func(t *testing.T) {
		c := exampleCurve(t)
		assert.Equal(t, []entity.Maturity{entity.OneYear, entity.FiveYears, entity.TenYears}, c.Maturities())
		assert.Equal(t, testDate, c.AsOf())
		assert.Equal(t, 3, c.Len())
		assert.Equal(t, entity.OneYear, c.MinMaturity())
		assert.Equal(t, entity.TenYears, c.MaxMaturity())
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrEmptyCurve)
	})

	t.Run("Duplicate maturity", func(t *testing.T) {
		_, err := New([]entity.YieldCurvePoint{point(entity.TwoYears, 4.0), point(entity.TwoYears, 4.1)})
		assert.ErrorIs(t, err, ErrDuplicateMaturity)
	})

	t.Run("Non-finite yield", func(t *testing.T) {
		_, err := New([]entity.YieldCurvePoint{point(entity.TwoYears, math.NaN())})
		assert.ErrorIs(t, err, ErrNonFiniteYield)

		_, err = New([]entity.YieldCurvePoint{point(entity.TwoYears, math.Inf(1))})
		assert.ErrorIs(t, err, ErrNonFiniteYield)
	})

	t.Run("Mixed dates", func(t *testing.T) {
		other := entity.NewYieldCurvePoint(entity.FiveYears, 4.2, testDate.AddDays(1))
		_, err := New([]entity.YieldCurvePoint{point(entity.TwoYears, 4.0), other})
		assert.ErrorIs(t, err, ErrMixedDates)
	})

	t.Run("Immutable after construction", func(t *testing.T) {
		input := []entity.YieldCurvePoint{point(entity.OneYear, 4.5), point(entity.TwoYears, 4.4)}
		c, err := New(input)
		require.NoError(t, err)

		input[0].Yield = 99
		pts := c.Points()
		pts[1].Yield = 99

		y, ok := c.Yield(entity.OneYear)
		assert.True(t, ok)
		assert.Equal(t, 4.5, y)
		y, _ = c.Yield(entity.TwoYears)
		assert.Equal(t, 4.4, y)
	})
}

func TestFromObservations(t *testing.T) {
	next := testDate.AddDays(1)
	points := []entity.YieldCurvePoint{
		entity.NewYieldCurvePoint(entity.TenYears, 4.30, next),
		point(entity.TenYears, 4.35),
		point(entity.ThreeMonths, 5.40),
		entity.NewYieldCurvePoint(entity.ThreeMonths, 5.41, next),
	}

	curves, err := FromObservations(points)
	require.NoError(t, err)
	require.Len(t, curves, 2)

	assert.Equal(t, testDate, curves[0].AsOf())
	assert.Equal(t, next, curves[1].AsOf())
	assert.Equal(t, []entity.Maturity{entity.ThreeMonths, entity.TenYears}, curves[1].Maturities())

	empty, err := FromObservations(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = FromObservations([]entity.YieldCurvePoint{point(entity.TenYears, 4.3), point(entity.TenYears, 4.4)})
	assert.True(t, errors.Is(err, ErrDuplicateMaturity))
}
