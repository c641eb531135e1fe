package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of one request against a caller's budget
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // time until the caller may retry or the budget resets
}

// Store tracks request budgets per caller
type Store interface {
	// Take counts one request for caller at now
	Take(ctx context.Context, caller string, now time.Time) (Result, error)

	// Prune forgets callers whose budget has fully recovered by now
	Prune(ctx context.Context, now time.Time) error

	Close() error
}
