package governance

import (
	"context"
)

// Result is a gate decision plus the release handle. Release is never nil;
// when nothing was acquired it is a no-op, so callers can defer it
// unconditionally.
type Result struct {
	Decision Decision
	Release  func()
}

func noopRelease() {}

// Gate composes the rate limiter and the concurrency limiter into one
// admission decision per endpoint.
type Gate struct {
	rates *RateLimiter
	slots *ConcurrencyLimiter
}

// NewGate creates a gate over the given limiters.
func NewGate(rates *RateLimiter, slots *ConcurrencyLimiter) *Gate {
	return &Gate{rates: rates, slots: slots}
}

// Admit applies the endpoint's policy. The rate check runs strictly before
// the concurrency check: an already rate-limited endpoint never consumes a
// concurrency slot. When the rate check passes but concurrency rejects, the
// consumed window count is not rolled back - the rate limiter counts
// attempts, the concurrency limiter counts execution.
func (g *Gate) Admit(ctx context.Context, key string, policy Policy) (Result, error) {
	if policy.Rate != nil {
		admitted, err := g.rates.TryAdmit(ctx, key, *policy.Rate)
		if err != nil {
			return Result{Decision: RateExceeded, Release: noopRelease}, err
		}
		if !admitted {
			return Result{Decision: RateExceeded, Release: noopRelease}, nil
		}
	}

	if policy.Concurrency != nil {
		release, ok := g.slots.TryAcquire(key, *policy.Concurrency)
		if !ok {
			return Result{Decision: ConcurrencyExceeded, Release: noopRelease}, nil
		}
		return Result{Decision: Admitted, Release: release}, nil
	}

	return Result{Decision: Admitted, Release: noopRelease}, nil
}
