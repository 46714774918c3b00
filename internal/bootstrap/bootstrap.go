// Package bootstrap seeds a persistence unit with the France/Paris and
// Mexico/Mexico City pairs in a single transaction.
package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/capitals/internal/model"
	"github.com/roach88/capitals/internal/persistence"
	"github.com/roach88/capitals/internal/store"
)

// Options configures a bootstrap run.
type Options struct {
	Logger *slog.Logger

	// RunIDs overrides the transaction log run ID generator (for testing).
	// If nil, the store defaults to UUIDv7.
	RunIDs store.RunIDGenerator

	// Now overrides the clock used for the transaction log timestamp.
	Now func() time.Time

	// BeforeCommit, if set, runs after all entities are persisted and before
	// the commit. A non-nil error aborts the run and rolls back.
	BeforeCommit func(*store.Store, *store.Context) error
}

// Pair is one country and its capital as stored.
type Pair struct {
	Country *model.Country
	Capital *model.Capital
}

// Result describes a committed bootstrap run.
type Result struct {
	Unit  string
	Log   store.LogEntry
	Pairs []Pair
}

// Run builds the two country/capital pairs and persists them atomically in
// the given unit. The store and the persistence context are released
// before Run returns, whether it succeeds or not.
//
// Errors are *persistence.Error values: CONNECTION when the store cannot
// be reached (no transaction is started), TRANSACTION when anything after
// Begin fails (nothing is left committed).
func Run(ctx context.Context, unit persistence.Unit, opts Options) (res *Result, err error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	france := model.NewCountry("France")
	mexico := model.NewCountry("Mexico")

	paris := model.NewCapital("Paris")
	mexicoCity := model.NewCapital("Mexico City")

	model.Associate(france, paris)
	model.Associate(mexico, mexicoCity)

	log.Info("opening persistence unit", "unit", unit.Name, "database", unit.Database)
	st, err := store.Open(ctx, unit,
		store.WithLogger(log),
		store.WithRunIDs(opts.RunIDs),
		store.WithNow(opts.Now),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
			err = errors.Join(err, persistence.NewConnectionError("close", unit.Name, closeErr))
		}
	}()

	pc := st.NewContext()
	defer func() {
		if closeErr := pc.Close(); closeErr != nil {
			log.Error("error closing persistence context", "error", closeErr)
			err = errors.Join(err, closeErr)
		}
	}()

	if err := pc.Begin(ctx); err != nil {
		return nil, err
	}

	for _, e := range []model.Entity{france, mexico, paris, mexicoCity} {
		if err := pc.Persist(e); err != nil {
			return nil, err
		}
	}

	if opts.BeforeCommit != nil {
		if err := opts.BeforeCommit(st, pc); err != nil {
			return nil, persistence.NewTransactionError("before commit", unit.Name, err)
		}
	}

	entry, err := pc.Commit()
	if err != nil {
		return nil, err
	}

	log.Info("bootstrap complete", "run_id", entry.RunID, "entities", entry.Entities)
	return &Result{
		Unit: st.Unit().Name,
		Log:  entry,
		Pairs: []Pair{
			{Country: france, Capital: paris},
			{Country: mexico, Capital: mexicoCity},
		},
	}, nil
}
