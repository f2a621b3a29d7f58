// Package service internal/application/service/curve_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/curve"
	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/damon-houk/yc-central/internal/domain/service"
	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
	"github.com/damon-houk/yc-central/internal/infrastructure/middleware"
)

// ErrNoData is returned when the provider has no observations in the requested range
var ErrNoData = errors.New("no yield observations in range")

// CurveService builds yield curves from provider observations
type CurveService struct {
	provider service.TreasuryYieldAPI
	logger   logger.Logger
}

// NewCurveService creates a new curve service
func NewCurveService(provider service.TreasuryYieldAPI, log logger.Logger) *CurveService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &CurveService{
		provider: provider,
		logger:   log,
	}
}

// Curves fetches observations and groups them into one curve per date, oldest first
func (s *CurveService) Curves(ctx context.Context, maturities []entity.Maturity, start, end civil.Date) ([]*curve.YieldCurve, error) {
	requestID := middleware.GetRequestID(ctx)

	s.logger.Debug("Building yield curves", map[string]interface{}{
		"request_id": requestID,
		"maturities": len(maturities),
		"start":      start.String(),
		"end":        end.String(),
	})

	points, err := s.provider.Fetch(ctx, maturities, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch yields: %w", err)
	}

	curves, err := curve.FromObservations(points)
	if err != nil {
		s.logger.Error("Provider returned an inconsistent curve", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to build curves: %w", err)
	}

	s.logger.Info("Yield curves built", map[string]interface{}{
		"request_id": requestID,
		"points":     len(points),
		"curves":     len(curves),
	})

	return curves, nil
}

// LatestCurve returns the curve of the most recent date in [start, end] that has data
func (s *CurveService) LatestCurve(ctx context.Context, maturities []entity.Maturity, start, end civil.Date) (*curve.YieldCurve, error) {
	curves, err := s.Curves(ctx, maturities, start, end)
	if err != nil {
		return nil, err
	}

	if len(curves) == 0 {
		s.logger.Warn("No yield observations found", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"start":      start.String(),
			"end":        end.String(),
		})
		return nil, fmt.Errorf("%w: %s to %s", ErrNoData, start, end)
	}

	return curves[len(curves)-1], nil
}

// InversionHistory reports the 10Y-3M and 10Y-2Y spreads for each date in
// [start, end]. Dates whose curve does not reach from 3M to 10Y are skipped.
func (s *CurveService) InversionHistory(ctx context.Context, start, end civil.Date) ([]curve.InversionStatus, error) {
	requestID := middleware.GetRequestID(ctx)

	curves, err := s.Curves(ctx, curve.InversionMaturities, start, end)
	if err != nil {
		return nil, err
	}

	history := make([]curve.InversionStatus, 0, len(curves))
	for _, c := range curves {
		status, err := curve.Inversion(c)
		if errors.Is(err, curve.ErrOutOfRange) {
			s.logger.Debug("Skipping incomplete curve", map[string]interface{}{
				"request_id": requestID,
				"as_of":      c.AsOf().String(),
				"error":      err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to compute inversion for %s: %w", c.AsOf(), err)
		}
		history = append(history, status)
	}

	inverted := 0
	for _, h := range history {
		if h.Inverted {
			inverted++
		}
	}

	s.logger.Info("Inversion history computed", map[string]interface{}{
		"request_id":    requestID,
		"dates":         len(history),
		"inverted_days": inverted,
	})

	return history, nil
}
