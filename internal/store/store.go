package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/roach88/capitals/internal/persistence"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Country, Capital and transaction_log tables
const currentSchemaVersion = 1

// Store is the persistence-context factory for one unit. It owns the SQL
// connection and the ORM handle built on top of it.
type Store struct {
	db     *sql.DB
	orm    *gorm.DB
	unit   persistence.Unit
	log    *slog.Logger
	runIDs RunIDGenerator
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for store and ORM diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRunIDs overrides the generator used for transaction log run IDs.
func WithRunIDs(g RunIDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.runIDs = g
		}
	}
}

// WithNow overrides the clock used for transaction log timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the unit's database and prepares it for use.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// An unreachable database is reported as a CONNECTION error; an invalid
// unit or an unsupported schema version as a CONFIGURATION error.
func Open(ctx context.Context, unit persistence.Unit, opts ...Option) (*Store, error) {
	unit = unit.WithDefaults()
	if err := unit.Validate(); err != nil {
		return nil, persistence.NewConfigurationError("open", unit.Name, err)
	}

	s := &Store{
		unit:   unit,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs: UUIDv7Generator{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("unit", unit.Name)

	if !unit.CreateAllowed() && isFilePath(unit.Database) {
		if _, err := os.Stat(unit.Database); err != nil {
			return nil, persistence.NewConnectionError("open", unit.Name, fmt.Errorf("database not found: %w", err))
		}
	}

	db, err := sql.Open(unit.Driver, unit.Database)
	if err != nil {
		return nil, persistence.NewConnectionError("open", unit.Name, fmt.Errorf("failed to open database: %w", err))
	}

	// Verify connection works
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, persistence.NewConnectionError("open", unit.Name, fmt.Errorf("failed to connect to database: %w", err))
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, persistence.NewConnectionError("open", unit.Name, fmt.Errorf("failed to apply pragmas: %w", err))
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, persistence.NewConfigurationError("open", unit.Name, fmt.Errorf("failed to apply schema: %w", err))
	}

	orm, err := gorm.Open(sqlite.New(sqlite.Config{Conn: db}), &gorm.Config{
		Logger:                 newGormLogger(s.log, unit.LogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		db.Close()
		return nil, persistence.NewConnectionError("open", unit.Name, fmt.Errorf("failed to initialise ORM: %w", err))
	}

	s.db = db
	s.orm = orm
	s.log.Debug("store opened", "driver", unit.Driver, "database", unit.Database)
	return s, nil
}

// Close closes the database connection. Contexts created from the store
// can no longer begin transactions afterwards.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.log.Debug("store closed")
	return err
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Unit returns the resolved persistence unit.
func (s *Store) Unit() persistence.Unit {
	return s.unit
}

// isFilePath reports whether dsn names a plain file on disk.
func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. This function is idempotent.
func applySchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
