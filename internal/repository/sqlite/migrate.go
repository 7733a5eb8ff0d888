package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The schema ships inside the binary; golang-migrate records the applied
// version in its schema_migrations table.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to the latest version.
//
// Running it against an up-to-date database is a no-op (migrate.ErrNoChange
// is not an error). After migrating, the timestamp clock is seeded from the
// newest value on disk.
//
// migrate.Migrate.Close is deliberately not called: the database driver's
// Close would close db.conn, which the repositories keep using. Only the
// embedded source is released.
func (db *DB) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: loading migrations: %w", err)
	}
	defer src.Close()

	driver, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite: preparing migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("sqlite: creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: applying migrations: %w", err)
	}

	return db.seedClock(ctx)
}

// SchemaVersion returns the applied migration version, or 0 when none ran.
func (db *DB) SchemaVersion(ctx context.Context) (uint, error) {
	var version sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT version FROM schema_migrations LIMIT 1`,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("sqlite: reading schema version: %w", err)
	}
	return uint(version.Int64), nil
}

func (db *DB) seedClock(ctx context.Context) error {
	var newest sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT MAX(ts) FROM (
			SELECT MAX(updated_at)    AS ts FROM users
			UNION ALL SELECT MAX(last_login_at) FROM users
			UNION ALL SELECT MAX(updated_at) FROM journals
			UNION ALL SELECT MAX(updated_at) FROM categories
			UNION ALL SELECT MAX(updated_at) FROM habits
			UNION ALL SELECT MAX(updated_at) FROM todos
		)`,
	).Scan(&newest)
	if err != nil {
		return fmt.Errorf("sqlite: reading newest timestamp: %w", err)
	}
	if !newest.Valid {
		return nil
	}

	t, err := parseTime(newest.String)
	if err != nil {
		return fmt.Errorf("sqlite: parsing newest timestamp %q: %w", newest.String, err)
	}
	db.clock.observe(t)
	return nil
}
