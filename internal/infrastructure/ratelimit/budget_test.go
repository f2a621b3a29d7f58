package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetTryTake(t *testing.T) {
	b := NewBudget(2, time.Hour)
	assert.Equal(t, 2, b.Remaining())

	ok, _ := b.TryTake()
	assert.True(t, ok)
	ok, _ = b.TryTake()
	assert.True(t, ok)

	ok, delay := b.TryTake()
	assert.False(t, ok)
	assert.Greater(t, delay, 59*time.Minute)
	assert.Equal(t, 0, b.Remaining())
}

func TestBudgetRefill(t *testing.T) {
	clock := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	b := NewBudget(1, time.Minute)
	b.now = func() time.Time { return clock }
	b.lastRefill = clock

	ok, _ := b.TryTake()
	require.True(t, ok)

	clock = clock.Add(30 * time.Second)
	ok, delay := b.TryTake()
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, delay)

	clock = clock.Add(30 * time.Second)
	ok, _ = b.TryTake()
	assert.True(t, ok)
}

func TestBudgetWaitBlocksUntilRefill(t *testing.T) {
	b := NewBudget(1, 50*time.Millisecond)
	ctx := context.Background()

	waited, err := b.Wait(ctx)
	require.NoError(t, err)
	assert.Zero(t, waited)

	start := time.Now()
	waited, err = b.Wait(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Greater(t, waited, time.Duration(0))
}

func TestBudgetWaitHonorsContext(t *testing.T) {
	b := NewBudget(1, time.Hour)
	_, err := b.Wait(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = b.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBudgetConcurrentCallers(t *testing.T) {
	const capacity = 10
	b := NewBudget(capacity, time.Hour)

	var granted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := b.TryTake(); ok {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(capacity), granted)
	assert.Equal(t, 0, b.Remaining())
}

func TestBudgetDrain(t *testing.T) {
	b := NewBudget(5, time.Hour)
	b.Drain()
	assert.Equal(t, 0, b.Remaining())

	ok, _ := b.TryTake()
	assert.False(t, ok)
}

func TestUnlimitedBudget(t *testing.T) {
	b := NewBudget(0, 0)
	assert.True(t, b.Unlimited())
	assert.Equal(t, -1, b.Remaining())

	for i := 0; i < 100; i++ {
		waited, err := b.Wait(context.Background())
		require.NoError(t, err)
		assert.Zero(t, waited)
	}

	b.Drain()
	ok, _ := b.TryTake()
	assert.True(t, ok)
}

func TestSharedBudget(t *testing.T) {
	key := "https://provider.test/" + t.Name()

	a := Shared(key, 1, time.Hour)
	b := Shared(key, 10, time.Minute)
	require.Same(t, a, b)
	assert.Equal(t, 1, b.Remaining())

	ok, _ := a.TryTake()
	require.True(t, ok)
	ok, _ = b.TryTake()
	assert.False(t, ok)

	other := Shared(key+"/other", 1, time.Hour)
	assert.NotSame(t, a, other)

	assert.NotSame(t, Shared(key, 0, 0), Shared(key, 0, 0))
	assert.True(t, Shared(key+"/unlimited", 0, 0).Unlimited())
}
