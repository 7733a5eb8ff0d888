package sqlite

import (
	"database/sql"
	"time"

	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

var _ repository.HabitRepository = (*Table[model.Habit, model.HabitPatch])(nil)

const habitColumns = `id, name, description, frequency, target, start_date, end_date, created_at, updated_at, user_id`

// Habits returns the habit table, listed by name.
func (db *DB) Habits() *Table[model.Habit, model.HabitPatch] {
	return &Table[model.Habit, model.HabitPatch]{
		db: db,
		def: tableDef[model.Habit, model.HabitPatch]{
			resource: "habit",
			insertSQL: `INSERT INTO habits (` + habitColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			getSQL: `SELECT ` + habitColumns + ` FROM habits WHERE id = ?`,
			listSQL: `SELECT ` + habitColumns + ` FROM habits
				WHERE user_id = ?
				ORDER BY name ASC`,
			updateSQL: `UPDATE habits SET
				name        = CASE WHEN ? THEN ? ELSE name END,
				description = CASE WHEN ? THEN ? ELSE description END,
				frequency   = CASE WHEN ? THEN ? ELSE frequency END,
				target      = CASE WHEN ? THEN ? ELSE target END,
				start_date  = CASE WHEN ? THEN ? ELSE start_date END,
				end_date    = CASE WHEN ? THEN ? ELSE end_date END,
				updated_at  = ?
				WHERE id = ?`,
			deleteSQL: `DELETE FROM habits WHERE id = ?`,
			stamp: func(h *model.Habit, id string, now time.Time) {
				h.ID, h.CreatedAt, h.UpdatedAt = id, now, now
			},
			insertArgs: func(h *model.Habit) ([]any, error) {
				return []any{
					h.ID, h.Name, nullString(h.Description), h.Frequency, string(h.Target),
					h.StartDate, nullString(h.EndDate),
					formatTime(h.CreatedAt), formatTime(h.UpdatedAt), h.UserID,
				}, nil
			},
			patchArgs: habitPatchArgs,
			scan:      scanHabit,
		},
	}
}

func habitPatchArgs(p model.HabitPatch) ([]any, error) {
	args := make([]any, 0, 12)
	args = append(args, patchString(p.Name)...)
	args = append(args, patchNullable(p.Description)...)
	args = append(args, patchString(p.Frequency)...)
	args = append(args, patchText(p.Target)...)
	args = append(args, patchString(p.StartDate)...)
	args = append(args, patchNullable(p.EndDate)...)
	return args, nil
}

func scanHabit(row scanner) (*model.Habit, error) {
	var (
		h                    model.Habit
		description, endDate sql.NullString
		target               string
		created, updated     string
	)
	if err := row.Scan(
		&h.ID, &h.Name, &description, &h.Frequency, &target,
		&h.StartDate, &endDate, &created, &updated, &h.UserID,
	); err != nil {
		return nil, err
	}

	h.Description = stringPtr(description)
	h.EndDate = stringPtr(endDate)
	h.Target = model.Text(target)
	if err := scanTimes(created, updated, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}
