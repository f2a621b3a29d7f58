// Package db internal/infrastructure/db/cached_yield_repository.go
package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/damon-houk/yc-central/internal/domain/repository"
	"github.com/damon-houk/yc-central/internal/domain/service"
	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
	"github.com/damon-houk/yc-central/internal/infrastructure/metrics"
	"github.com/damon-houk/yc-central/internal/infrastructure/middleware"
)

// CachedYieldRepository serves fetches from an ObservationCache and falls back
// to the provider on a miss. Cache failures never fail a fetch.
type CachedYieldRepository struct {
	provider  service.TreasuryYieldAPI
	cache     repository.ObservationCache
	ttl       time.Duration
	namespace string
	logger    logger.Logger
	metrics   *metrics.Collector
}

// NewCachedYieldRepository wraps provider with cache. namespace separates
// entries that differ in provider settings, e.g. the interval.
func NewCachedYieldRepository(provider service.TreasuryYieldAPI, cache repository.ObservationCache, ttl time.Duration,
	namespace string, log logger.Logger, m *metrics.Collector) *CachedYieldRepository {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &CachedYieldRepository{
		provider:  provider,
		cache:     cache,
		ttl:       ttl,
		namespace: namespace,
		logger:    log,
		metrics:   m,
	}
}

// CacheKey identifies a fetch independent of maturity order and duplicates
func CacheKey(namespace string, maturities []entity.Maturity, start, end civil.Date) string {
	seen := make(map[entity.Maturity]bool, len(maturities))
	labels := make([]entity.Maturity, 0, len(maturities))
	for _, m := range maturities {
		if !seen[m] {
			seen[m] = true
			labels = append(labels, m)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	parts := make([]string, len(labels))
	for i, m := range labels {
		parts[i] = m.String()
	}

	return fmt.Sprintf("%s|%s|%s|%s", namespace, strings.Join(parts, ","), start, end)
}

// Fetch returns cached observations when present, otherwise fetches and stores them
func (r *CachedYieldRepository) Fetch(ctx context.Context, maturities []entity.Maturity, start, end civil.Date) ([]entity.YieldCurvePoint, error) {
	key := CacheKey(r.namespace, maturities, start, end)
	requestID := middleware.GetRequestID(ctx)

	points, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Observation cache read failed", map[string]interface{}{
			"request_id": requestID,
			"key":        key,
			"error":      err.Error(),
		})
	}
	r.metrics.ObserveCache(found)
	if found {
		r.logger.Debug("Observation cache hit", map[string]interface{}{
			"request_id": requestID,
			"key":        key,
			"points":     len(points),
		})
		return points, nil
	}

	points, err = r.provider.Fetch(ctx, maturities, start, end)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Put(ctx, key, points, r.ttl); err != nil {
		r.logger.Warn("Observation cache write failed", map[string]interface{}{
			"request_id": requestID,
			"key":        key,
			"error":      err.Error(),
		})
	}

	return points, nil
}
