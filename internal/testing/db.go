// Package testing provides testing utilities and helpers for the folio project.
package testing

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/aristath/folio/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a temporary SQLite database for testing with automatic schema migration.
// Returns the database instance and a cleanup function that closes the connection.
// The cleanup function is idempotent and can be called multiple times safely.
//
// Supported schema names:
//   - "ledger" - applies ledger_schema.sql
//   - "client_data" - applies client_data_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// Temporary files give each test its own database and let concurrent
	// connections see the same data, which an in-memory database cannot do
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	profile := database.ProfileStandard
	if name == database.NameLedger {
		profile = database.ProfileLedger
	}

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// NewLedgerDB is NewTestDB for the ledger database, closed automatically when the test ends
func NewLedgerDB(t *testing.T) *sql.DB {
	t.Helper()
	db, cleanup := NewTestDB(t, database.NameLedger)
	t.Cleanup(cleanup)
	return db.Conn()
}

// NewClientDataDB is NewTestDB for the client data cache, closed automatically when the test ends
func NewClientDataDB(t *testing.T) *sql.DB {
	t.Helper()
	db, cleanup := NewTestDB(t, database.NameClientData)
	t.Cleanup(cleanup)
	return db.Conn()
}
