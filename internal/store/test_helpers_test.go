package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/roach88/capitals/internal/model"
	"github.com/roach88/capitals/internal/persistence"
	"github.com/roach88/capitals/internal/testutil"
)

// testUnit returns a unit backed by a fresh database file.
func testUnit(t *testing.T) persistence.Unit {
	t.Helper()
	return testutil.TempUnit(t, "test")
}

// createTestStore opens a store on a temporary database.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), testUnit(t), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// beginTestContext creates a context with an active transaction.
func beginTestContext(t *testing.T, s *Store) *Context {
	t.Helper()
	pc := s.NewContext()
	t.Cleanup(func() { pc.Close() })
	if err := pc.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	return pc
}

// createTestPair returns an associated, transient country and capital.
func createTestPair(country, capital string) (*model.Country, *model.Capital) {
	co := model.NewCountry(country)
	ca := model.NewCapital(capital)
	model.Associate(co, ca)
	return co, ca
}

// countRows must not be called while a transaction is active: the store
// uses a single connection.
func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
