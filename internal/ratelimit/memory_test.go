package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_AllowsUpToMaxThenRejects(t *testing.T) {
	store := NewMemoryStore(15*time.Minute, 3)
	ctx := context.Background()
	now := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res, err := store.Take(ctx, "203.0.113.7", now)
		if err != nil {
			t.Fatalf("Take() error = %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d rejected, want allowed", i+1)
		}
		if res.Remaining != 2-i {
			t.Errorf("request %d Remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res, err := store.Take(ctx, "203.0.113.7", now)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if res.Allowed {
		t.Fatal("request over the limit allowed, want rejected")
	}
	if res.Limit != 3 {
		t.Errorf("Limit = %d, want 3", res.Limit)
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want positive", res.RetryAfter)
	}
}

func TestMemoryStore_CallersAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Minute, 1)
	ctx := context.Background()
	now := time.Now()

	if res, _ := store.Take(ctx, "a", now); !res.Allowed {
		t.Fatal("first request for a rejected")
	}
	if res, _ := store.Take(ctx, "a", now); res.Allowed {
		t.Fatal("second request for a allowed")
	}
	if res, _ := store.Take(ctx, "b", now); !res.Allowed {
		t.Error("first request for b rejected")
	}
}

func TestMemoryStore_RecoversAfterWindow(t *testing.T) {
	store := NewMemoryStore(time.Minute, 2)
	ctx := context.Background()
	now := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)

	store.Take(ctx, "a", now)
	store.Take(ctx, "a", now)
	if res, _ := store.Take(ctx, "a", now); res.Allowed {
		t.Fatal("request over the limit allowed")
	}

	later := now.Add(2 * time.Minute)
	for i := 0; i < 2; i++ {
		if res, _ := store.Take(ctx, "a", later); !res.Allowed {
			t.Errorf("request %d after the bucket refilled rejected", i+1)
		}
	}
}

func TestMemoryStore_Prune(t *testing.T) {
	store := NewMemoryStore(time.Minute, 5)
	ctx := context.Background()
	now := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)

	store.Take(ctx, "idle", now)
	store.Take(ctx, "active", now.Add(50*time.Second))

	if err := store.Prune(ctx, now.Add(time.Minute)); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	if n := store.size(); n != 1 {
		t.Errorf("callers after prune = %d, want 1", n)
	}
}

func TestMemoryStore_SpreadRequestsStayWithinWindow(t *testing.T) {
	store := NewMemoryStore(15*time.Minute, 100)
	ctx := context.Background()
	start := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)

	allowed := 0
	for sec := 0; sec < 14*60; sec++ {
		res, err := store.Take(ctx, "203.0.113.7", start.Add(time.Duration(sec)*time.Second))
		if err != nil {
			t.Fatalf("Take() error = %v", err)
		}
		if res.Allowed {
			allowed++
		}
	}
	if allowed != 100 {
		t.Fatalf("allowed %d requests within one 15m window, want 100", allowed)
	}

	res, err := store.Take(ctx, "203.0.113.7", start.Add(15*time.Minute))
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if !res.Allowed {
		t.Error("first request of the next window rejected")
	}
	if res.Remaining != 99 {
		t.Errorf("Remaining = %d, want 99", res.Remaining)
	}
}

func TestMemoryStore_MatchesSQLiteStore(t *testing.T) {
	memory := NewMemoryStore(time.Minute, 3)
	sqlite := newTestSQLiteStore(t, time.Minute, 3)
	ctx := context.Background()
	start := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)

	// Requests every 10s across three windows
	for i := 0; i < 18; i++ {
		now := start.Add(time.Duration(i) * 10 * time.Second)

		want, err := sqlite.Take(ctx, "a", now)
		if err != nil {
			t.Fatalf("SQLiteStore.Take() error = %v", err)
		}
		got, err := memory.Take(ctx, "a", now)
		if err != nil {
			t.Fatalf("MemoryStore.Take() error = %v", err)
		}

		if got.Allowed != want.Allowed || got.Remaining != want.Remaining {
			t.Errorf("request at +%v: memory = (allowed %v, remaining %d), sqlite = (allowed %v, remaining %d)",
				now.Sub(start), got.Allowed, got.Remaining, want.Allowed, want.Remaining)
		}
		if got.RetryAfter != want.RetryAfter {
			t.Errorf("request at +%v: memory RetryAfter = %v, sqlite = %v", now.Sub(start), got.RetryAfter, want.RetryAfter)
		}
	}
}
