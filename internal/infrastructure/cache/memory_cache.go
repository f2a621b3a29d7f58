package cache

import (
	"context"
	"sync"
	"time"

	"github.com/damon-houk/yc-central/internal/domain/entity"
)

// CacheEntry represents cached observations with their expiry
type CacheEntry struct {
	Points    []entity.YieldCurvePoint
	ExpiresAt time.Time
}

// MemoryObservationCache provides a thread-safe in-memory cache for fetched observations
type MemoryObservationCache struct {
	cache map[string]CacheEntry
	mutex sync.RWMutex
	now   func() time.Time
}

// NewMemoryObservationCache creates an empty in-memory cache
func NewMemoryObservationCache() *MemoryObservationCache {
	return &MemoryObservationCache{
		cache: make(map[string]CacheEntry),
		now:   time.Now,
	}
}

// Get retrieves observations from the cache if available and not expired
func (c *MemoryObservationCache) Get(_ context.Context, key string) ([]entity.YieldCurvePoint, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || !c.now().Before(entry.ExpiresAt) {
		return nil, false, nil
	}

	out := make([]entity.YieldCurvePoint, len(entry.Points))
	copy(out, entry.Points)
	return out, true, nil
}

// Put stores observations in the cache
func (c *MemoryObservationCache) Put(_ context.Context, key string, points []entity.YieldCurvePoint, ttl time.Duration) error {
	stored := make([]entity.YieldCurvePoint, len(points))
	copy(stored, points)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = CacheEntry{
		Points:    stored,
		ExpiresAt: c.now().Add(ttl),
	}
	return nil
}

// Clear clears all entries from the cache
func (c *MemoryObservationCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]CacheEntry)
}

// Size returns the number of items in the cache
func (c *MemoryObservationCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CleanExpired removes expired entries from the cache
func (c *MemoryObservationCache) CleanExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	now := c.now()

	for key, entry := range c.cache {
		if !now.Before(entry.ExpiresAt) {
			delete(c.cache, key)
			count++
		}
	}

	return count
}
