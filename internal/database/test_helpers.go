package database

import (
	"path/filepath"
	"testing"
)

// setupTestDB returns the path of a fresh SQLite database file in a
// per-test temporary directory
func setupTestDB(t *testing.T, testName string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), testName+".db")
}

// NewTestDB opens and migrates a temporary database that is closed when the
// test ends
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(setupTestDB(t, "slopscore"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
