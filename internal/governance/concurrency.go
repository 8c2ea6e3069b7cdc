package governance

import (
	"sync"
)

// ConcurrencyLimit caps simultaneously executing calls per endpoint.
type ConcurrencyLimit struct {
	Limit int
}

// concurrencySlot tracks admitted-but-not-released calls for one endpoint.
// inFlight stays within [0, limit] at every observation point.
type concurrencySlot struct {
	inFlight int
}

// ConcurrencyLimiter is a counted admission semaphore keyed by endpoint.
// Slots are process-local: an in-flight count only means something in the
// process executing the calls.
type ConcurrencyLimiter struct {
	mu    sync.Mutex
	slots map[string]*concurrencySlot
}

// NewConcurrencyLimiter creates an empty limiter. Slots are created lazily
// on first acquisition for an endpoint.
func NewConcurrencyLimiter() *ConcurrencyLimiter {
	return &ConcurrencyLimiter{slots: make(map[string]*concurrencySlot)}
}

// TryAcquire atomically claims an execution slot for key. On success it
// returns ok=true and a release function that must run when the governed
// call finishes, on every exit path. The release is safe to call more than
// once; only the first call decrements, so a double release can never drive
// the in-flight count negative. On rejection it returns ok=false with no
// side effects.
func (l *ConcurrencyLimiter) TryAcquire(key string, limit ConcurrencyLimit) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, exists := l.slots[key]
	if !exists {
		s = &concurrencySlot{}
		l.slots[key] = s
	}

	if s.inFlight >= limit.Limit {
		return nil, false
	}
	s.inFlight++

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if s.inFlight > 0 {
				s.inFlight--
			}
		})
	}, true
}

// InFlight reports the current in-flight count for key.
func (l *ConcurrencyLimiter) InFlight(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[key]; ok {
		return s.inFlight
	}
	return 0
}
