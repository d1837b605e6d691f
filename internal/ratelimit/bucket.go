// Package ratelimit implements the multi-scope token-bucket admission
// control described in §4.1: a demand-driven bucket refilled on each
// consume attempt (no background timer), composed across global,
// per-conversation, and per-user scopes.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a single token bucket. Capacity tokens refill every Window;
// Burst tokens may additionally accumulate, for a hard ceiling of
// Capacity+Burst. All operations are guarded by an internal mutex so a
// Bucket may be shared across goroutines.
type Bucket struct {
	mu sync.Mutex

	capacity int
	burst    int
	window   time.Duration

	tokens     float64
	lastRefill time.Time
}

// NewBucket constructs a Bucket starting full.
func NewBucket(capacity, burst int, window time.Duration, now time.Time) *Bucket {
	return &Bucket{
		capacity:   capacity,
		burst:      burst,
		window:     window,
		tokens:     float64(capacity),
		lastRefill: now,
	}
}

// refill applies demand-driven replenishment: compute whole windows
// elapsed since lastRefill, add capacity tokens per window, clamp to
// capacity+burst. Caller must hold mu.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 || b.window <= 0 {
		return
	}
	periods := int64(elapsed / b.window)
	if periods <= 0 {
		return
	}
	b.tokens += float64(periods) * float64(b.capacity)
	max := float64(b.capacity + b.burst)
	if b.tokens > max {
		b.tokens = max
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(periods) * b.window)
}

// TryConsume attempts to take one token at time now. On success it
// returns (true, 0). On failure it returns (false, retryAfter), where
// retryAfter is ceil(window/capacity). Refill happens only at whole-window
// boundaries, so for capacity > 1 a token may not yet be available after
// retryAfter has passed.
func (b *Bucket) TryConsume(now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	return false, retryAfter(b.capacity, b.window)
}

func retryAfter(capacity int, window time.Duration) time.Duration {
	if capacity <= 0 {
		return window
	}
	d := time.Duration(int64(window) / int64(capacity))
	if time.Duration(int64(window))%time.Duration(int64(capacity)) != 0 {
		d++
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

// Tokens reports the current token count, for inspection/metrics.
func (b *Bucket) Tokens(now time.Time) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(now)
	return b.tokens
}
