package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisObservationCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping redis cache test in short mode")
	}
	addr := os.Getenv("YC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("YC_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	cache, err := InitRedisObservationCache(ctx, &redis.Options{Addr: addr})
	require.NoError(t, err)
	defer cache.Close()

	key := "test|" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, cache.Put(ctx, key, testPoints, time.Minute))

	got, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, testPoints, got)

	_, found, err = cache.Get(ctx, key+"-missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInitRedisObservationCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := InitRedisObservationCache(ctx, &redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.redis.Init")
}
