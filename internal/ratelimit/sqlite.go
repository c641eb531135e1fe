package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ngmaloney/weather-terminal/internal/database"
)

// SQLiteStore keeps fixed-window counters in SQLite so several key provider
// processes can share one budget per caller.
type SQLiteStore struct {
	db     *sql.DB
	window time.Duration
	max    int
}

// NewSQLiteStore opens the database at dbPath and returns a store allowing
// max requests per window
func NewSQLiteStore(dbPath string, window time.Duration, max int) (*SQLiteStore, error) {
	db, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, window: window, max: max}, nil
}

// A window restarts when the previous one has fully elapsed. All SET
// expressions read the row as it was before the update.
const takeQuery = `
	INSERT INTO rate_limits (caller, window_start, hits) VALUES (?, ?, 1)
	ON CONFLICT(caller) DO UPDATE SET
		hits = CASE WHEN ? - window_start >= ? THEN 1 ELSE hits + 1 END,
		window_start = CASE WHEN ? - window_start >= ? THEN ? ELSE window_start END
	RETURNING window_start, hits
`

// Take implements Store
func (s *SQLiteStore) Take(ctx context.Context, key string, now time.Time) (Result, error) {
	nowMS := now.UnixMilli()
	windowMS := s.window.Milliseconds()

	var start int64
	var hits int
	err := s.db.QueryRowContext(ctx, takeQuery,
		key, nowMS,
		nowMS, windowMS,
		nowMS, windowMS, nowMS,
	).Scan(&start, &hits)
	if err != nil {
		return Result{}, fmt.Errorf("counting request for %s: %w", key, err)
	}

	remaining := s.max - hits
	if remaining < 0 {
		remaining = 0
	}

	retryAfter := time.UnixMilli(start).Add(s.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}

	return Result{
		Allowed:    hits <= s.max,
		Limit:      s.max,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Prune implements Store
func (s *SQLiteStore) Prune(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM rate_limits WHERE ? - window_start >= ?",
		now.UnixMilli(), s.window.Milliseconds())
	if err != nil {
		return fmt.Errorf("pruning rate limits: %w", err)
	}
	return nil
}

// Close implements Store
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
