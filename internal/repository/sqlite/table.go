package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

// Table is the SQLite implementation of repository.ResourceRepository for a
// single record kind. The four kinds share this code and differ only in their
// tableDef: fixed SQL text plus the functions that bind and scan columns.
//
// PARTIAL UPDATES WITHOUT DYNAMIC SQL:
// Every kind has exactly one UPDATE statement. Each patchable column is
// written as
//
//	col = CASE WHEN ? THEN ? ELSE col END
//
// and bound with the pair (field.Set, field.Value). Unset fields keep their
// stored value; no statement text is ever derived from request keys.
//
// KEY CONCEPTS:
//
//  1. SET VS NULL:
//     model.Optional records whether a key was present at all (Set) and
//     whether it was JSON null (Null). For nullable columns the value is a
//     *string, so a present null binds as SQL NULL while an absent key
//     leaves the column alone.
//
//  2. updated_at IS ALWAYS WRITTEN:
//     The statement ends with "updated_at = ?" bound to the clock, so even
//     an empty patch advances it. The clock never returns the same value
//     twice.
//
//  3. NOT FOUND FROM RowsAffected:
//     UPDATE and DELETE report a missing id as zero affected rows, which is
//     turned into apperror.NotFound without a second query.
type Table[T any, P any] struct {
	db  *DB
	def tableDef[T, P]
}

type tableDef[T any, P any] struct {
	resource string // singular noun used in errors, e.g. "journal"

	insertSQL string
	getSQL    string
	listSQL   string
	updateSQL string
	deleteSQL string

	// typeFiltered lists bind (user_id, type, type) instead of (user_id).
	typeFiltered bool

	// stamp assigns the generated id and creation time to a new record.
	stamp      func(item *T, id string, now time.Time)
	insertArgs func(item *T) ([]any, error)
	patchArgs  func(patch P) ([]any, error)
	scan       func(row scanner) (*T, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (t *Table[T, P]) Create(ctx context.Context, item *T) error {
	t.def.stamp(item, uuid.NewString(), t.db.clock.Now())

	args, err := t.def.insertArgs(item)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s: %w", t.def.resource, err)
	}

	if _, err := t.db.conn.ExecContext(ctx, t.def.insertSQL, args...); err != nil {
		return fmt.Errorf("sqlite: creating %s: %w", t.def.resource, err)
	}
	return nil
}

// GetUnscoped reads one record by id without any ownership check.
func (t *Table[T, P]) GetUnscoped(ctx context.Context, id string) (*T, error) {
	item, err := t.def.scan(t.db.conn.QueryRowContext(ctx, t.def.getSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(t.def.resource, id)
		}
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", t.def.resource, id, err)
	}
	return item, nil
}

func (t *Table[T, P]) List(ctx context.Context, filter repository.ListFilter) ([]T, error) {
	args := []any{filter.UserID}
	if t.def.typeFiltered {
		args = append(args, filter.Type, filter.Type)
	}

	rows, err := t.db.conn.QueryContext(ctx, t.def.listSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %ss: %w", t.def.resource, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := t.def.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", t.def.resource, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %ss: %w", t.def.resource, err)
	}

	return items, nil
}

// Update applies the set fields of patch and advances updated_at, even when
// no field is set. RowsAffected tells us whether the id existed.
func (t *Table[T, P]) Update(ctx context.Context, id string, patch P) error {
	args, err := t.def.patchArgs(patch)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s patch: %w", t.def.resource, err)
	}
	args = append(args, formatTime(t.db.clock.Now()), id)

	result, err := t.db.conn.ExecContext(ctx, t.def.updateSQL, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s %s: %w", t.def.resource, id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(t.def.resource, id)
	}
	return nil
}

// Delete hard-deletes one record. Nothing cascades.
func (t *Table[T, P]) Delete(ctx context.Context, id string) error {
	result, err := t.db.conn.ExecContext(ctx, t.def.deleteSQL, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", t.def.resource, id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(t.def.resource, id)
	}
	return nil
}

// =========================================================================
// COLUMN HELPERS
// =========================================================================

// Patch fields bind as (set, value) pairs. Named types are converted to
// their base type so the driver never sees a model type.

func patchString(o model.Optional[string]) []any {
	return []any{o.Set, o.Value}
}

func patchText(o model.Optional[model.Text]) []any {
	return []any{o.Set, string(o.Value)}
}

func patchFlag(o model.Optional[model.Flag]) []any {
	return []any{o.Set, bool(o.Value)}
}

func patchNullable(o model.Optional[*string]) []any {
	return []any{o.Set, nullString(o.Value)}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// scanTimes parses the created_at / updated_at text columns into item fields.
func scanTimes(created, updated string, createdAt, updatedAt *time.Time) error {
	var err error
	if *createdAt, err = parseTime(created); err != nil {
		return fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	if *updatedAt, err = parseTime(updated); err != nil {
		return fmt.Errorf("parsing updated_at %q: %w", updated, err)
	}
	return nil
}
