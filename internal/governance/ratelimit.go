package governance

import (
	"context"
	"time"
)

// RateLimit caps admitted calls per endpoint inside a fixed window.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// WindowStore holds fixed-window counters keyed by endpoint. Implementations
// must make the check-and-count atomic per key: concurrent admissions must
// never over-admit or lose an increment.
type WindowStore interface {
	// Admit counts an admission attempt for key against limit inside
	// window and reports whether the call is admitted.
	Admit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Close releases any store resources.
	Close() error
}

// RateLimiter enforces fixed-window rate limits over a WindowStore.
//
// The window is deliberately fixed rather than sliding: a burst of limit
// calls can land on each side of a window boundary, so the worst case is
// 2x limit calls inside one window duration. That is the documented
// behavior, not a defect to smooth over.
type RateLimiter struct {
	store WindowStore
}

// NewRateLimiter creates a rate limiter backed by the given window store.
func NewRateLimiter(store WindowStore) *RateLimiter {
	return &RateLimiter{store: store}
}

// TryAdmit records an admission attempt for key and reports whether it fits
// inside the current window. A store failure (for example an unreachable
// redis) is returned as an error distinct from a rate rejection.
func (l *RateLimiter) TryAdmit(ctx context.Context, key string, limit RateLimit) (bool, error) {
	return l.store.Admit(ctx, key, limit.Limit, limit.Window)
}
