package persistence

import (
	"fmt"
	"regexp"
)

// DefaultUnitName is the unit resolved when none is named.
const DefaultUnitName = "example"

// Supported SQL drivers.
const (
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite (pure Go)
)

// Log levels accepted by Unit.LogLevel.
const (
	LogSilent = "silent"
	LogError  = "error"
	LogWarn   = "warn"
	LogInfo   = "info"
)

var unitNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Unit is a named persistence configuration: which driver to use, where
// the database lives and how chatty the ORM should be.
type Unit struct {
	Name     string `yaml:"name" json:"name"`
	Driver   string `yaml:"driver,omitempty" json:"driver,omitempty"`
	Database string `yaml:"database" json:"database"`

	// Create allows the database file to be created when missing. When
	// false, a missing file is a connection error.
	Create *bool `yaml:"create,omitempty" json:"create,omitempty"`

	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// WithDefaults returns a copy of u with unset fields filled in.
func (u Unit) WithDefaults() Unit {
	if u.Driver == "" {
		u.Driver = DriverSQLite3
	}
	if u.Create == nil {
		create := true
		u.Create = &create
	}
	if u.LogLevel == "" {
		u.LogLevel = LogWarn
	}
	return u
}

// CreateAllowed reports whether a missing database may be created.
func (u Unit) CreateAllowed() bool {
	return u.Create == nil || *u.Create
}

// Validate checks that u is usable. It does not touch the filesystem.
func (u Unit) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !unitNamePattern.MatchString(u.Name) {
		return fmt.Errorf("invalid unit name %q", u.Name)
	}
	if u.Database == "" {
		return fmt.Errorf("unit %q: database is required", u.Name)
	}
	switch u.Driver {
	case DriverSQLite3, DriverSQLite:
	default:
		return fmt.Errorf("unit %q: unsupported driver %q", u.Name, u.Driver)
	}
	switch u.LogLevel {
	case LogSilent, LogError, LogWarn, LogInfo:
	default:
		return fmt.Errorf("unit %q: invalid log_level %q", u.Name, u.LogLevel)
	}
	return nil
}
