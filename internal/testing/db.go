// Package testing provides test helpers for the trade journal client: a
// fake journal API, an in-memory transport, fixtures and databases.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/tradejournal/internal/database"
)

// NewTestDB creates a migrated SQLite database in a temporary directory.
// Returns the database and a cleanup function; the cleanup also runs
// automatically at the end of the test and is safe to call twice.
//
// Supported schema names:
//   - "drafts" - applies drafts_schema.sql
//   - Unknown names - creates an empty database
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileEphemeral,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
	t.Cleanup(cleanup)
	return db, cleanup
}
