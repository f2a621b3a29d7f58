package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Budget is a process-wide request allowance of capacity requests per window.
// All access is serialized so two callers never spend the same unit.
type Budget struct {
	mu         sync.Mutex
	capacity   int
	window     time.Duration
	remaining  int
	lastRefill time.Time
	now        func() time.Time
}

// NewBudget creates a budget of capacity requests per window. A capacity of
// zero or less disables limiting.
func NewBudget(capacity int, window time.Duration) *Budget {
	b := &Budget{
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
	b.remaining = capacity
	b.lastRefill = b.now()
	return b
}

// Unlimited reports whether the budget never blocks
func (b *Budget) Unlimited() bool {
	return b.capacity <= 0
}

// refill must be called with mu held
func (b *Budget) refill(now time.Time) {
	if now.Sub(b.lastRefill) >= b.window {
		b.remaining = b.capacity
		b.lastRefill = now
	}
}

// TryTake spends one unit if available. When the budget is exhausted it
// returns how long until the next refill.
func (b *Budget) TryTake() (bool, time.Duration) {
	if b.Unlimited() {
		return true, 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.refill(now)

	if b.remaining > 0 {
		b.remaining--
		return true, 0
	}

	return false, b.lastRefill.Add(b.window).Sub(now)
}

// Wait blocks until a unit is spent or ctx is done. It returns the time spent waiting.
func (b *Budget) Wait(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		ok, delay := b.TryTake()
		if ok {
			return waited, nil
		}

		timer := time.NewTimer(delay)
		start := time.Now()
		select {
		case <-ctx.Done():
			timer.Stop()
			return waited + time.Since(start), ctx.Err()
		case <-timer.C:
			waited += time.Since(start)
		}
	}
}

// Drain spends everything left in the current window, used when the provider
// signals throttling before the local count ran out
func (b *Budget) Drain() {
	if b.Unlimited() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.now())
	b.remaining = 0
}

// Remaining returns the units left in the current window, or -1 when unlimited
func (b *Budget) Remaining() int {
	if b.Unlimited() {
		return -1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.now())
	return b.remaining
}

var (
	sharedMu sync.Mutex
	shared   = make(map[string]*Budget)
)

// Shared returns the process-wide budget for key, typically the provider base
// URL, creating it on first use. Later callers get the same budget and their
// capacity and window are ignored. A capacity of zero or less returns a fresh
// unlimited budget that is not registered.
func Shared(key string, capacity int, window time.Duration) *Budget {
	if capacity <= 0 {
		return NewBudget(capacity, window)
	}

	sharedMu.Lock()
	defer sharedMu.Unlock()

	if b, ok := shared[key]; ok {
		return b
	}
	b := NewBudget(capacity, window)
	shared[key] = b
	return b
}
