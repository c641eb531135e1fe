package database

import (
	"path/filepath"
	"testing"
)

func TestEnsureSchema_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// 1. Initialize schema
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	// 2. Insert a record
	_, err = db.Exec(`INSERT INTO rate_limits (caller, window_start, hits) VALUES ('203.0.113.7', 1000, 3)`)
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	// 3. Initialize schema again (should not drop table)
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("Second EnsureSchema failed: %v", err)
	}
	db.Close()

	// 4. Reopen and verify the record survived
	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()

	var hits int
	err = db.QueryRow("SELECT hits FROM rate_limits WHERE caller = '203.0.113.7'").Scan(&hits)
	if err != nil {
		t.Fatalf("Failed to query record: %v", err)
	}

	if hits != 3 {
		t.Errorf("hits = %d, want 3. Data was likely lost due to table drop.", hits)
	}
}
