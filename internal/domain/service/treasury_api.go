package service

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
)

// TreasuryYieldAPI defines the interface for fetching treasury yield observations
type TreasuryYieldAPI interface {
	// Fetch retrieves one point per (maturity, date) the provider has in [start, end]
	Fetch(ctx context.Context, maturities []entity.Maturity, start, end civil.Date) ([]entity.YieldCurvePoint, error)
}
