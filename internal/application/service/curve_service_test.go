// internal/application/service/curve_service_test.go
package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/curve"
	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
	"github.com/damon-houk/yc-central/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	day1 = civil.Date{Year: 2023, Month: time.July, Day: 3}
	day2 = civil.Date{Year: 2023, Month: time.July, Day: 5}
	day3 = civil.Date{Year: 2023, Month: time.July, Day: 6}
)

func point(m entity.Maturity, y float64, d civil.Date) entity.YieldCurvePoint {
	return entity.NewYieldCurvePoint(m, y, d)
}

func newTestService() (*CurveService, *mocks.MockTreasuryYieldAPI) {
	provider := new(mocks.MockTreasuryYieldAPI)
	log := logger.NewJSONLogger(io.Discard, logger.DebugLevel)
	return NewCurveService(provider, log), provider
}

func TestCurves(t *testing.T) {
	ctx := context.Background()
	maturities := []entity.Maturity{entity.OneYear, entity.TenYears}

	t.Run("Groups observations by date", func(t *testing.T) {
		svc, provider := newTestService()

		provider.On("Fetch", ctx, maturities, day1, day3).Return([]entity.YieldCurvePoint{
			point(entity.OneYear, 5.40, day1),
			point(entity.TenYears, 3.86, day1),
			point(entity.OneYear, 5.43, day2),
			point(entity.TenYears, 3.94, day2),
		}, nil).Once()

		curves, err := svc.Curves(ctx, maturities, day1, day3)
		require.NoError(t, err)
		require.Len(t, curves, 2)
		assert.Equal(t, day1, curves[0].AsOf())
		assert.Equal(t, day2, curves[1].AsOf())

		y, ok := curves[1].Yield(entity.TenYears)
		assert.True(t, ok)
		assert.Equal(t, 3.94, y)

		provider.AssertExpectations(t)
	})

	t.Run("Provider failure is wrapped", func(t *testing.T) {
		svc, provider := newTestService()
		providerErr := errors.New("rate limited by provider")

		provider.On("Fetch", ctx, maturities, day1, day3).Return(nil, providerErr).Once()

		curves, err := svc.Curves(ctx, maturities, day1, day3)
		assert.Nil(t, curves)
		assert.ErrorIs(t, err, providerErr)
		assert.Contains(t, err.Error(), "failed to fetch yields")

		provider.AssertExpectations(t)
	})

	t.Run("Duplicate observations are rejected", func(t *testing.T) {
		svc, provider := newTestService()

		provider.On("Fetch", ctx, maturities, day1, day3).Return([]entity.YieldCurvePoint{
			point(entity.OneYear, 5.40, day1),
			point(entity.OneYear, 5.41, day1),
		}, nil).Once()

		_, err := svc.Curves(ctx, maturities, day1, day3)
		assert.ErrorIs(t, err, curve.ErrDuplicateMaturity)
	})
}

func TestLatestCurve(t *testing.T) {
	ctx := context.Background()
	maturities := []entity.Maturity{entity.ThreeMonths, entity.TenYears}

	t.Run("Returns the most recent date", func(t *testing.T) {
		svc, provider := newTestService()

		provider.On("Fetch", ctx, maturities, day1, day3).Return([]entity.YieldCurvePoint{
			point(entity.ThreeMonths, 5.28, day1),
			point(entity.TenYears, 3.86, day1),
			point(entity.ThreeMonths, 5.30, day3),
			point(entity.TenYears, 4.05, day3),
		}, nil).Once()

		latest, err := svc.LatestCurve(ctx, maturities, day1, day3)
		require.NoError(t, err)
		assert.Equal(t, day3, latest.AsOf())
		assert.Equal(t, 2, latest.Len())
	})

	t.Run("No data", func(t *testing.T) {
		svc, provider := newTestService()

		provider.On("Fetch", ctx, maturities, day1, day3).Return([]entity.YieldCurvePoint{}, nil).Once()

		latest, err := svc.LatestCurve(ctx, maturities, day1, day3)
		assert.Nil(t, latest)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestInversionHistory(t *testing.T) {
	ctx := context.Background()
	svc, provider := newTestService()

	provider.On("Fetch", mock.Anything, curve.InversionMaturities, day1, day3).Return([]entity.YieldCurvePoint{
		// inverted on both spreads
		point(entity.ThreeMonths, 5.28, day1),
		point(entity.TwoYears, 4.94, day1),
		point(entity.TenYears, 3.86, day1),
		// 3M missing, cannot be computed
		point(entity.TwoYears, 4.90, day2),
		point(entity.TenYears, 3.94, day2),
		// normal curve
		point(entity.ThreeMonths, 3.10, day3),
		point(entity.TwoYears, 3.60, day3),
		point(entity.TenYears, 4.20, day3),
	}, nil).Once()

	history, err := svc.InversionHistory(ctx, day1, day3)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, day1, history[0].AsOf)
	assert.True(t, history[0].Inverted)
	assert.InDelta(t, -1.42, history[0].Spread10Y3M, 1e-9)
	assert.InDelta(t, -1.08, history[0].Spread10Y2Y, 1e-9)

	assert.Equal(t, day3, history[1].AsOf)
	assert.False(t, history[1].Inverted)
	assert.InDelta(t, 1.10, history[1].Spread10Y3M, 1e-9)
	assert.InDelta(t, 0.60, history[1].Spread10Y2Y, 1e-9)

	provider.AssertExpectations(t)
}
