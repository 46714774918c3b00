package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/capitals/internal/persistence"
)

// TempUnit returns a unit named name backed by a database file in a fresh
// temporary directory. The file does not exist until the unit is opened.
func TempUnit(t testing.TB, name string) persistence.Unit {
	t.Helper()
	return persistence.Unit{
		Name:     name,
		Database: filepath.Join(t.TempDir(), name+".db"),
	}.WithDefaults()
}
