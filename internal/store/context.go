package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roach88/capitals/internal/model"
	"github.com/roach88/capitals/internal/persistence"
)

var (
	errNoTransaction = errors.New("no active transaction")
	errRollbackOnly  = errors.New("transaction is marked rollback-only")
)

// LogEntry is the transaction_log row written by every successful commit.
type LogEntry struct {
	Seq         int64  `gorm:"primaryKey" json:"seq"`
	RunID       string `gorm:"not null" json:"run_id"`
	Unit        string `gorm:"not null" json:"unit"`
	Entities    int    `gorm:"not null" json:"entities"`
	CommittedAt string `gorm:"not null" json:"committed_at"`
}

func (LogEntry) TableName() string { return "transaction_log" }

// Context is a persistence context: it tracks the entities handed to
// Persist and writes them to the store inside one transaction at a time.
//
// A Context is not safe for concurrent use. Close must be called when the
// context is no longer needed; it rolls back any active transaction.
type Context struct {
	store *Store

	tx           *gorm.DB
	rollbackOnly bool

	// managed holds every entity persisted through this context.
	managed map[model.Entity]struct{}

	// pending entities are managed but not yet inserted.
	pending []model.Entity

	// inserted entities received their ID in the active transaction.
	inserted []model.Entity

	closed bool
}

// NewContext creates a persistence context bound to s.
func (s *Store) NewContext() *Context {
	return &Context{
		store:   s,
		managed: make(map[model.Entity]struct{}),
	}
}

// Begin starts a transaction. Only one transaction may be active at a time.
func (c *Context) Begin(ctx context.Context) error {
	if c.closed {
		return c.closedError("begin")
	}
	if c.tx != nil {
		return persistence.NewTransactionError("begin", c.unitName(), errors.New("transaction already active"))
	}

	tx := c.store.orm.WithContext(ctx).Begin()
	if tx.Error != nil {
		return persistence.NewTransactionError("begin", c.unitName(), tx.Error)
	}

	c.tx = tx
	c.rollbackOnly = false
	c.store.log.Debug("transaction begun")
	return nil
}

// Persist makes e managed. The insert happens at the next Flush or Commit,
// so entities may be persisted in any order: countries are always written
// before the capitals that reference them.
//
// Persisting an entity that is already managed is a no-op. Persisting an
// entity that carries an ID but is not managed here (detached) fails and
// marks the transaction rollback-only.
func (c *Context) Persist(e model.Entity) error {
	if c.closed {
		return c.closedError("persist")
	}
	if c.tx == nil {
		return persistence.NewTransactionError("persist", c.unitName(), errNoTransaction)
	}
	if _, ok := flushRank(e); !ok {
		return persistence.NewTransactionError("persist", c.unitName(), fmt.Errorf("unsupported entity %T", e))
	}
	if _, ok := c.managed[e]; ok {
		return nil
	}
	if id := e.PrimaryKey(); id != 0 {
		c.rollbackOnly = true
		return persistence.NewTransactionError("persist", c.unitName(),
			fmt.Errorf("detached %s %s with id %d", e.TableName(), describe(e), id))
	}

	c.managed[e] = struct{}{}
	c.pending = append(c.pending, e)
	return nil
}

// Contains reports whether e is managed by this context.
func (c *Context) Contains(e model.Entity) bool {
	_, ok := c.managed[e]
	return ok
}

// Flush inserts pending entities without committing. A failed flush marks
// the transaction rollback-only.
func (c *Context) Flush() error {
	if c.closed {
		return c.closedError("flush")
	}
	if c.tx == nil {
		return persistence.NewTransactionError("flush", c.unitName(), errNoTransaction)
	}
	if c.rollbackOnly {
		return persistence.NewTransactionError("flush", c.unitName(), errRollbackOnly)
	}
	if err := c.flush(); err != nil {
		c.rollbackOnly = true
		return persistence.NewTransactionError("flush", c.unitName(), err)
	}
	return nil
}

// Commit flushes pending entities, appends a transaction_log entry and
// commits. On any failure the whole transaction is rolled back and a
// TRANSACTION error is returned.
func (c *Context) Commit() (LogEntry, error) {
	if c.closed {
		return LogEntry{}, c.closedError("commit")
	}
	if c.tx == nil {
		return LogEntry{}, persistence.NewTransactionError("commit", c.unitName(), errNoTransaction)
	}

	fail := func(op string, err error) (LogEntry, error) {
		if rbErr := c.rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return LogEntry{}, persistence.NewTransactionError(op, c.unitName(), err)
	}

	if c.rollbackOnly {
		return fail("commit", errRollbackOnly)
	}
	if err := c.flush(); err != nil {
		return fail("flush", err)
	}

	entry := LogEntry{
		RunID:       c.store.runIDs.Generate(),
		Unit:        c.unitName(),
		Entities:    len(c.inserted),
		CommittedAt: c.store.now().UTC().Format(time.RFC3339Nano),
	}
	if err := c.tx.Create(&entry).Error; err != nil {
		return fail("commit", fmt.Errorf("write transaction log: %w", err))
	}

	if err := c.tx.Commit().Error; err != nil {
		return fail("commit", err)
	}

	c.tx = nil
	c.inserted = nil
	c.store.log.Info("transaction committed", "run_id", entry.RunID, "entities", entry.Entities)
	return entry, nil
}

// Rollback discards the active transaction. Entities inserted in it lose
// their IDs and are no longer managed. Without an active transaction it
// does nothing.
func (c *Context) Rollback() error {
	if c.closed {
		return c.closedError("rollback")
	}
	if c.tx == nil {
		return nil
	}
	return c.rollback()
}

// Close releases the context, rolling back any active transaction. It is
// safe to call more than once.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}

	var err error
	if c.tx != nil {
		err = c.rollback()
	}

	c.closed = true
	c.managed = nil
	c.pending = nil
	return err
}

// Active reports whether a transaction is in progress.
func (c *Context) Active() bool {
	return c.tx != nil
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	return c.closed
}

func (c *Context) flush() error {
	sort.SliceStable(c.pending, func(i, j int) bool {
		ri, _ := flushRank(c.pending[i])
		rj, _ := flushRank(c.pending[j])
		return ri < rj
	})

	for len(c.pending) > 0 {
		if err := c.insert(c.pending[0]); err != nil {
			return err
		}
		c.pending = c.pending[1:]
	}
	return nil
}

func (c *Context) insert(e model.Entity) error {
	if capital, ok := e.(*model.Capital); ok && capital.Country != nil {
		if capital.Country.ID == 0 {
			return fmt.Errorf("capital %q references transient country %q", capital.Name, capital.Country.Name)
		}
		capital.CountryID = capital.Country.ID
	}

	if err := c.tx.Omit(clause.Associations).Create(e).Error; err != nil {
		return fmt.Errorf("insert %s %s: %w", e.TableName(), describe(e), err)
	}
	c.inserted = append(c.inserted, e)
	return nil
}

func (c *Context) rollback() error {
	err := c.tx.Rollback().Error

	for _, e := range c.inserted {
		switch v := e.(type) {
		case *model.Country:
			v.ID = 0
		case *model.Capital:
			v.ID = 0
		}
	}
	for _, e := range c.inserted {
		if capital, ok := e.(*model.Capital); ok && capital.Country != nil {
			capital.CountryID = capital.Country.ID
		}
	}
	for _, e := range c.inserted {
		delete(c.managed, e)
	}
	for _, e := range c.pending {
		delete(c.managed, e)
	}

	c.tx = nil
	c.inserted = nil
	c.pending = nil
	c.rollbackOnly = false
	c.store.log.Warn("transaction rolled back")

	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return persistence.NewTransactionError("rollback", c.unitName(), err)
	}
	return nil
}

func (c *Context) closedError(op string) error {
	return persistence.NewContextClosedError(op, c.unitName())
}

func (c *Context) unitName() string {
	return c.store.unit.Name
}

// flushRank orders inserts so referenced rows exist first. It also rejects
// nil and unknown entities.
func flushRank(e model.Entity) (int, bool) {
	switch v := e.(type) {
	case *model.Country:
		return 0, v != nil
	case *model.Capital:
		return 1, v != nil
	}
	return 0, false
}

func describe(e model.Entity) string {
	switch v := e.(type) {
	case *model.Country:
		return fmt.Sprintf("%q", v.Name)
	case *model.Capital:
		return fmt.Sprintf("%q", v.Name)
	}
	return fmt.Sprintf("%T", e)
}
