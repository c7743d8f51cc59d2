// Package testing provides shared fixtures for package-level tests: an
// temp-file weather ledger database and canned domain rows, grounded on the
// teacher's internal/testing package (NewTestDB/fixtures split across
// db.go/fixtures.go), narrowed from the teacher's seven-database fixture set
// to our single weather_schema.sql.
package testing

import (
	"os"
	"testing"

	"github.com/kalshiwx/sentinel/internal/database"
)

// NewTestDB opens a temp-file SQLite database and applies weather_schema.sql,
// returning the database and an idempotent cleanup function. A real file
// (rather than ":memory:") is used so the WAL-mode PRAGMAs database.New sets
// behave exactly as they do against the production path.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "sentinel_test_*.db")
	if err != nil {
		t.Fatalf("creating temp database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    "test",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("opening test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("migrating test database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: closing test database: %v", err)
		}
		if err := os.Remove(tmpPath); err != nil {
			t.Logf("warning: removing test database file %s: %v", tmpPath, err)
		}
	}
}
