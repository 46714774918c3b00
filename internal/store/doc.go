// Package store provides the SQLite-backed persistence unit for countries
// and capitals.
//
// A Store owns one connection to the unit's database and a gorm handle
// bound to it. Work is done through a Context:
//
//	st, err := store.Open(ctx, unit)
//	if err != nil {
//		return err
//	}
//	defer st.Close()
//
//	pc := st.NewContext()
//	defer pc.Close()
//	if err := pc.Begin(ctx); err != nil {
//		return err
//	}
//	if err := pc.Persist(france); err != nil {
//		return err
//	}
//	entry, err := pc.Commit()
//
// # Persistence Context
//
//   - Persist only queues; rows are written by Flush or Commit
//   - Countries are inserted before capitals so country_id is always set
//   - Commit writes one transaction_log row inside the same transaction
//   - Any failure rolls the whole transaction back and resets assigned IDs
//   - Close rolls back an active transaction; later calls fail with
//     persistence.ErrContextClosed
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - MaxOpenConns=1: Queries made while a transaction is open block
//     until it ends
//
// Both github.com/mattn/go-sqlite3 ("sqlite3") and modernc.org/sqlite
// ("sqlite") are registered; the unit's driver field picks one.
package store
