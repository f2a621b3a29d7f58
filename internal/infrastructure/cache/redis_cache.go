package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "yc:obs:"

// RedisObservationCache shares fetched observations between processes
type RedisObservationCache struct {
	rdb redis.UniversalClient
}

// NewRedisObservationCache wraps an existing client
func NewRedisObservationCache(client redis.UniversalClient) *RedisObservationCache {
	return &RedisObservationCache{rdb: client}
}

// InitRedisObservationCache connects and pings before returning the cache
func InitRedisObservationCache(ctx context.Context, options *redis.Options) (*RedisObservationCache, error) {
	const op = "cache.redis.Init"

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, op)
	}

	return NewRedisObservationCache(client), nil
}

func (c *RedisObservationCache) Get(ctx context.Context, key string) ([]entity.YieldCurvePoint, bool, error) {
	const op = "cache.redis.Get"

	data, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, op)
	}

	var points []entity.YieldCurvePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, false, errors.Wrap(err, op)
	}

	return points, true, nil
}

func (c *RedisObservationCache) Put(ctx context.Context, key string, points []entity.YieldCurvePoint, ttl time.Duration) error {
	const op = "cache.redis.Put"

	data, err := json.Marshal(points)
	if err != nil {
		return errors.Wrap(err, op)
	}

	if err := c.rdb.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

// Close releases the underlying connection pool
func (c *RedisObservationCache) Close() error {
	return c.rdb.Close()
}
