package store

import (
	"context"
	"path/filepath"
	"testing"
)

// OpenTestDB opens a migrated sqlite database under a temp dir of tb.
func OpenTestDB(tb testing.TB) *DB {
	tb.Helper()
	db, err := OpenFromConfig("", filepath.Join(tb.TempDir(), "test.db"), DriverSQLite)
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	if err := Migrate(context.Background(), db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}
