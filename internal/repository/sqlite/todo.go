package sqlite

import (
	"database/sql"
	"time"

	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

var _ repository.TodoRepository = (*Table[model.Todo, model.TodoPatch])(nil)

const todoColumns = `id, title, description, is_completed, due_date, priority, created_at, updated_at, user_id`

// Todos returns the todo table.
//
// ORDERING:
// Incomplete items come first, then by due date ascending. SQLite sorts NULL
// before any value, so "due_date IS NULL" is added as a key to push undated
// items after dated ones. created_at breaks the remaining ties.
func (db *DB) Todos() *Table[model.Todo, model.TodoPatch] {
	return &Table[model.Todo, model.TodoPatch]{
		db: db,
		def: tableDef[model.Todo, model.TodoPatch]{
			resource: "todo",
			insertSQL: `INSERT INTO todos (` + todoColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			getSQL: `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`,
			listSQL: `SELECT ` + todoColumns + ` FROM todos
				WHERE user_id = ?
				ORDER BY is_completed ASC, due_date IS NULL, due_date ASC, created_at ASC`,
			updateSQL: `UPDATE todos SET
				title        = CASE WHEN ? THEN ? ELSE title END,
				description  = CASE WHEN ? THEN ? ELSE description END,
				is_completed = CASE WHEN ? THEN ? ELSE is_completed END,
				due_date     = CASE WHEN ? THEN ? ELSE due_date END,
				priority     = CASE WHEN ? THEN ? ELSE priority END,
				updated_at   = ?
				WHERE id = ?`,
			deleteSQL: `DELETE FROM todos WHERE id = ?`,
			stamp: func(t *model.Todo, id string, now time.Time) {
				t.ID, t.CreatedAt, t.UpdatedAt = id, now, now
				if t.Priority == "" {
					t.Priority = model.DefaultPriority
				}
			},
			insertArgs: func(t *model.Todo) ([]any, error) {
				return []any{
					t.ID, t.Title, nullString(t.Description), bool(t.IsCompleted),
					nullString(t.DueDate), t.Priority,
					formatTime(t.CreatedAt), formatTime(t.UpdatedAt), t.UserID,
				}, nil
			},
			patchArgs: todoPatchArgs,
			scan:      scanTodo,
		},
	}
}

func todoPatchArgs(p model.TodoPatch) ([]any, error) {
	args := make([]any, 0, 10)
	args = append(args, patchString(p.Title)...)
	args = append(args, patchNullable(p.Description)...)
	args = append(args, patchFlag(p.IsCompleted)...)
	args = append(args, patchNullable(p.DueDate)...)
	args = append(args, patchString(p.Priority)...)
	return args, nil
}

func scanTodo(row scanner) (*model.Todo, error) {
	var (
		t                    model.Todo
		description, dueDate sql.NullString
		completed            bool
		created, updated     string
	)
	if err := row.Scan(
		&t.ID, &t.Title, &description, &completed, &dueDate, &t.Priority,
		&created, &updated, &t.UserID,
	); err != nil {
		return nil, err
	}

	t.Description = stringPtr(description)
	t.DueDate = stringPtr(dueDate)
	t.IsCompleted = model.Flag(completed)
	if err := scanTimes(created, updated, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
