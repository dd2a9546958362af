// Package ratelimit provides a token-bucket rate limiter shared across all
// remote calls in a run.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a mutex-guarded token bucket. Tokens refill continuously
// based on elapsed wall time; Acquire blocks the caller until enough tokens
// accrue, so concurrent callers cannot over-draw the bucket.
type TokenBucket struct {
	mu       sync.Mutex
	rate     float64 // tokens added per second
	capacity float64
	tokens   float64
	last     time.Time

	// sleep is swapped out in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// defaultRate is used when the caller passes a non-positive rate, which
// would otherwise make Acquire's sleep computation divide by zero.
const defaultRate = 10

// NewTokenBucket creates a limiter producing rate tokens per second with the
// given capacity. A non-positive rate defaults to defaultRate; a capacity of
// 0 defaults to the rate.
func NewTokenBucket(rate float64, capacity float64) *TokenBucket {
	if rate <= 0 {
		rate = defaultRate
	}
	if capacity <= 0 {
		capacity = rate
	}
	return &TokenBucket{
		rate:     rate,
		capacity: capacity,
		tokens:   capacity,
		last:     time.Now(),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Acquire blocks until n tokens are available, then consumes them.
func (b *TokenBucket) Acquire(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		b.refill()
		need := float64(n)
		if b.tokens >= need {
			b.tokens -= need
			return
		}
		b.sleep(time.Duration((need - b.tokens) / b.rate * float64(time.Second)))
	}
}

// TryAcquire consumes n tokens if immediately available and reports whether
// it did.
func (b *TokenBucket) TryAcquire(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	need := float64(n)
	if b.tokens >= need {
		b.tokens -= need
		return true
	}
	return false
}

// refill credits tokens for the time elapsed since the last update.
// Callers must hold the lock.
func (b *TokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now

	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}
