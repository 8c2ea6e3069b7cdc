package governance

import (
	"context"
	"sync"
	"time"
)

// limitWindow is one endpoint's fixed-window counter. start advances only
// when the window has fully elapsed, and then to the reset moment itself,
// not to a computed boundary: each expiry starts a fresh window from "now".
type limitWindow struct {
	start time.Time
	count int
}

// MemoryStore is the in-process WindowStore. Counters live for the process
// lifetime; the map is guarded by a single mutex, which serializes the
// read-modify-write per admission as required.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*limitWindow
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the store's time source. Tests use this to advance
// windows without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an in-memory fixed-window store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*limitWindow),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit implements WindowStore. While a window is open the counter never
// exceeds limit: a rejected attempt is not counted.
func (s *MemoryStore) Admit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &limitWindow{start: now}
		s.windows[key] = w
	}

	if now.Sub(w.start) >= window {
		w.start = now
		w.count = 0
	}

	if w.count < limit {
		w.count++
		return true, nil
	}
	return false, nil
}

// Close implements WindowStore. The memory store holds no external
// resources.
func (s *MemoryStore) Close() error {
	return nil
}

// count returns the current window counter for key. Test helper.
func (s *MemoryStore) windowCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[key]; ok {
		return w.count
	}
	return 0
}
