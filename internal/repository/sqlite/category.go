package sqlite

import (
	"time"

	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

var _ repository.CategoryRepository = (*Table[model.Category, model.CategoryPatch])(nil)

const categoryColumns = `id, name, type, created_at, updated_at, user_id`

// Categories returns the category table. Lists are ordered by name and can
// be narrowed to one type; an empty type matches every row.
func (db *DB) Categories() *Table[model.Category, model.CategoryPatch] {
	return &Table[model.Category, model.CategoryPatch]{
		db: db,
		def: tableDef[model.Category, model.CategoryPatch]{
			resource: "category",
			insertSQL: `INSERT INTO categories (` + categoryColumns + `)
				VALUES (?, ?, ?, ?, ?, ?)`,
			getSQL: `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`,
			listSQL: `SELECT ` + categoryColumns + ` FROM categories
				WHERE user_id = ? AND (? = '' OR type = ?)
				ORDER BY name ASC`,
			typeFiltered: true,
			updateSQL: `UPDATE categories SET
				name       = CASE WHEN ? THEN ? ELSE name END,
				type       = CASE WHEN ? THEN ? ELSE type END,
				updated_at = ?
				WHERE id = ?`,
			deleteSQL: `DELETE FROM categories WHERE id = ?`,
			stamp: func(c *model.Category, id string, now time.Time) {
				c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
			},
			insertArgs: func(c *model.Category) ([]any, error) {
				return []any{
					c.ID, c.Name, c.Type,
					formatTime(c.CreatedAt), formatTime(c.UpdatedAt), c.UserID,
				}, nil
			},
			patchArgs: func(p model.CategoryPatch) ([]any, error) {
				return append(patchString(p.Name), patchString(p.Type)...), nil
			},
			scan: scanCategory,
		},
	}
}

func scanCategory(row scanner) (*model.Category, error) {
	var (
		c                model.Category
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &created, &updated, &c.UserID); err != nil {
		return nil, err
	}
	if err := scanTimes(created, updated, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
