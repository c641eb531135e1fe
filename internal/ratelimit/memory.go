package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type caller struct {
	limiter     *rate.Limiter
	windowStart time.Time
}

// MemoryStore keeps a fixed window per caller in process memory, using the
// same window rule as SQLiteStore. Each window gets a fresh limiter holding
// max tokens that refills one token per window, so the limiter is replaced
// before it can hand out a token beyond max.
type MemoryStore struct {
	mu      sync.Mutex
	callers map[string]*caller
	max     int
	window  time.Duration
}

// NewMemoryStore creates an in-memory store allowing max requests per window
func NewMemoryStore(window time.Duration, max int) *MemoryStore {
	return &MemoryStore{
		callers: make(map[string]*caller),
		max:     max,
		window:  window,
	}
}

// Take implements Store
func (s *MemoryStore) Take(_ context.Context, key string, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.callers[key]
	if !ok || now.Sub(c.windowStart) >= s.window {
		c = &caller{
			limiter:     rate.NewLimiter(rate.Every(s.window), s.max),
			windowStart: now,
		}
		s.callers[key] = c
	}

	allowed := c.limiter.AllowN(now, 1)

	res := Result{
		Allowed:    allowed,
		Limit:      s.max,
		Remaining:  int(c.limiter.TokensAt(now)),
		RetryAfter: c.windowStart.Add(s.window).Sub(now),
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	return res, nil
}

// Prune implements Store. A caller whose window has ended starts a fresh
// one on its next request, so dropping it loses nothing.
func (s *MemoryStore) Prune(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.callers {
		if now.Sub(c.windowStart) >= s.window {
			delete(s.callers, key)
		}
	}
	return nil
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callers)
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
