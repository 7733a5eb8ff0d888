// Package sqlite implements the repository interfaces on top of SQLite.
//
// DRIVER:
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without a C toolchain. It registers itself with database/sql under the
// driver name "sqlite".
//
// LIFECYCLE:
//
//	db, err := sqlite.New("data/momentkeep.db")   // open pool, ping
//	if err != nil { ... }
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil { ... } // explicit schema step
//
// Opening a database never touches the schema. Migrate is run once during
// bootstrap (or by the "migrate" command) and is idempotent.
//
// TIMESTAMPS:
// created_at / updated_at are stored as fixed-width UTC text
// (2006-01-02T15:04:05.000000000Z), so lexical order equals time order and
// values round-trip without a driver-specific DATETIME conversion.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool. Per-kind record tables hang off it
// (db.Journals(), db.Todos(), ...); user methods live directly on it.
type DB struct {
	conn  *sql.DB
	clock *clock
}

// Option customizes a DB at construction time.
type Option func(*DB)

// WithClock replaces the wall clock used for timestamps. Tests use it to pin
// or rewind time; the store still guarantees strictly increasing values.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.clock = newClock(now)
	}
}

// New opens a SQLite database at dbPath.
//
// dbPath examples:
//   - "data/momentkeep.db" → file-based database (persistent)
//   - ":memory:"           → in-memory database, pinned to one connection
//
// PRAGMAS PER CONNECTION:
// database/sql hands out several connections, and a PRAGMA executed with
// conn.Exec only reaches one of them. Passing the pragmas in the DSN makes
// the driver apply them to every connection it opens.
func New(dbPath string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, clock: newClock(time.Now)}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	// WAL lets readers proceed while a write is in flight; busy_timeout makes
	// a writer wait for the lock instead of failing with SQLITE_BUSY.
	return dbPath + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health route.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver message names the column, e.g. "UNIQUE constraint failed: users.email".
func isUniqueViolation(err error, column string) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return false
	}
	return column == "" || strings.Contains(sqliteErr.Error(), column)
}
