package ratelimit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ngmaloney/weather-terminal/internal/logger"
)

type countingStore struct {
	MemoryStore
	prunes atomic.Int32
}

func (s *countingStore) Prune(ctx context.Context, now time.Time) error {
	s.prunes.Add(1)
	return nil
}

func TestStartJanitor_PrunesImmediately(t *testing.T) {
	store := &countingStore{}

	s, err := StartJanitor(store, time.Hour, logger.Discard())
	if err != nil {
		t.Fatalf("StartJanitor() error = %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.prunes.Load() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("janitor did not prune within 2s")
}
