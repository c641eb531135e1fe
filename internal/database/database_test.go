package database

import (
	"path/filepath"
	"testing"
)

func TestDBPath(t *testing.T) {
	expected := filepath.Join("data", "keyprovider.db")
	if got := DBPath(); got != expected {
		t.Errorf("DBPath() = %v, want %v", got, expected)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
