package testutil

import (
	"database/sql"
	"testing"

	"github.com/tkloetzk/smartgarden/internal/database"
)

// NewTestDatabase opens an in-memory database with all migrations applied.
// The connection is closed automatically when the test finishes, including
// when migration itself fails the test.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
