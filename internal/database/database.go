package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBPath returns the default path of the shared rate-limit database
func DBPath() string {
	return filepath.Join("data", "keyprovider.db")
}

// Open opens (creating if needed) the SQLite database at dbPath and ensures
// the schema exists.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	// Set pragmas for concurrent readers across processes
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout=5000")

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema ensures that the rate_limits table exists. Safe to call repeatedly.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rate_limits (
			caller TEXT PRIMARY KEY,
			window_start INTEGER NOT NULL,
			hits INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rate_limits_window_start ON rate_limits(window_start);
	`)
	if err != nil {
		return fmt.Errorf("creating rate_limits table: %w", err)
	}

	return nil
}
