// Package repository internal/domain/repository/observation_cache.go
package repository

import (
	"context"
	"time"

	"github.com/damon-houk/yc-central/internal/domain/entity"
)

// ObservationCache defines the interface for caching fetched yield observations
type ObservationCache interface {
	// Get returns the observations stored under key. found is false on a miss or expiry.
	Get(ctx context.Context, key string) (points []entity.YieldCurvePoint, found bool, err error)

	// Put stores observations under key for ttl
	Put(ctx context.Context, key string, points []entity.YieldCurvePoint, ttl time.Duration) error
}
