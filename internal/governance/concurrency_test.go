package governance

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyLimiter_TryAcquire_UnderLimit(t *testing.T) {
	limiter := NewConcurrencyLimiter()

	release, ok := limiter.TryAcquire("orders", ConcurrencyLimit{Limit: 2})
	require.True(t, ok)
	require.NotNil(t, release)
	assert.Equal(t, 1, limiter.InFlight("orders"))

	release()
	assert.Equal(t, 0, limiter.InFlight("orders"))
}

func TestConcurrencyLimiter_TryAcquire_AtLimit(t *testing.T) {
	limiter := NewConcurrencyLimiter()
	limit := ConcurrencyLimit{Limit: 2}

	_, ok := limiter.TryAcquire("orders", limit)
	require.True(t, ok)
	_, ok = limiter.TryAcquire("orders", limit)
	require.True(t, ok)

	release, ok := limiter.TryAcquire("orders", limit)
	assert.False(t, ok)
	assert.Nil(t, release)
	assert.Equal(t, 2, limiter.InFlight("orders"))
}

func TestConcurrencyLimiter_ReleaseFreesSlot(t *testing.T) {
	limiter := NewConcurrencyLimiter()
	limit := ConcurrencyLimit{Limit: 1}

	release, ok := limiter.TryAcquire("orders", limit)
	require.True(t, ok)

	_, ok = limiter.TryAcquire("orders", limit)
	require.False(t, ok)

	release()

	_, ok = limiter.TryAcquire("orders", limit)
	assert.True(t, ok, "slot should be reusable after release")
}

func TestConcurrencyLimiter_DoubleReleaseIsIdempotent(t *testing.T) {
	limiter := NewConcurrencyLimiter()
	limit := ConcurrencyLimit{Limit: 2}

	releaseA, ok := limiter.TryAcquire("orders", limit)
	require.True(t, ok)
	_, ok = limiter.TryAcquire("orders", limit)
	require.True(t, ok)

	// Releasing the same handle twice frees exactly one slot.
	releaseA()
	releaseA()
	assert.Equal(t, 1, limiter.InFlight("orders"))
}

func TestConcurrencyLimiter_CountNeverNegative(t *testing.T) {
	limiter := NewConcurrencyLimiter()

	release, ok := limiter.TryAcquire("orders", ConcurrencyLimit{Limit: 1})
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		release()
	}
	assert.Equal(t, 0, limiter.InFlight("orders"))
}

func TestConcurrencyLimiter_IndependentKeys(t *testing.T) {
	limiter := NewConcurrencyLimiter()
	limit := ConcurrencyLimit{Limit: 1}

	_, ok := limiter.TryAcquire("orders", limit)
	require.True(t, ok)
	_, ok = limiter.TryAcquire("orders", limit)
	require.False(t, ok)

	_, ok = limiter.TryAcquire("reports", limit)
	assert.True(t, ok, "saturation of one endpoint must not block another")
}

func TestConcurrencyLimiter_ConcurrentAcquire_ExactlyLimitWin(t *testing.T) {
	limiter := NewConcurrencyLimiter()
	const limit = 2
	const callers = 4

	var wg sync.WaitGroup
	var mu sync.Mutex
	var releases []func()
	denied := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, ok := limiter.TryAcquire("orders", ConcurrencyLimit{Limit: limit})
			mu.Lock()
			defer mu.Unlock()
			if ok {
				releases = append(releases, release)
			} else {
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, releases, limit)
	assert.Equal(t, callers-limit, denied)
	assert.Equal(t, limit, limiter.InFlight("orders"))

	for _, release := range releases {
		release()
	}
	assert.Equal(t, 0, limiter.InFlight("orders"))
}
