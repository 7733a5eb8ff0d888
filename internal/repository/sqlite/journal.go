package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

var _ repository.JournalRepository = (*Table[model.Journal, model.JournalPatch])(nil)

const journalColumns = `id, category_id, title, content, tags, date, created_at, updated_at, user_id`

// Journals returns the journal table. Entries list newest entry date first.
func (db *DB) Journals() *Table[model.Journal, model.JournalPatch] {
	return &Table[model.Journal, model.JournalPatch]{
		db: db,
		def: tableDef[model.Journal, model.JournalPatch]{
			resource: "journal",
			insertSQL: `INSERT INTO journals (` + journalColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			getSQL: `SELECT ` + journalColumns + ` FROM journals WHERE id = ?`,
			listSQL: `SELECT ` + journalColumns + ` FROM journals
				WHERE user_id = ?
				ORDER BY date DESC`,
			updateSQL: `UPDATE journals SET
				category_id = CASE WHEN ? THEN ? ELSE category_id END,
				title       = CASE WHEN ? THEN ? ELSE title END,
				content     = CASE WHEN ? THEN ? ELSE content END,
				tags        = CASE WHEN ? THEN ? ELSE tags END,
				date        = CASE WHEN ? THEN ? ELSE date END,
				updated_at  = ?
				WHERE id = ?`,
			deleteSQL:  `DELETE FROM journals WHERE id = ?`,
			stamp:      stampJournal,
			insertArgs: journalInsertArgs,
			patchArgs:  journalPatchArgs,
			scan:       scanJournal,
		},
	}
}

// stampJournal fills the server-assigned fields. An entry without a date is
// dated at its creation time.
func stampJournal(j *model.Journal, id string, now time.Time) {
	j.ID = id
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Date == "" {
		j.Date = formatTime(now)
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
}

func journalInsertArgs(j *model.Journal) ([]any, error) {
	tags, err := encodeTags(j.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		j.ID, j.CategoryID, j.Title, j.Content, tags, j.Date,
		formatTime(j.CreatedAt), formatTime(j.UpdatedAt), j.UserID,
	}, nil
}

func journalPatchArgs(p model.JournalPatch) ([]any, error) {
	tags, err := encodeTags(p.Tags.Value)
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, 10)
	args = append(args, patchString(p.CategoryID)...)
	args = append(args, patchString(p.Title)...)
	args = append(args, patchString(p.Content)...)
	args = append(args, p.Tags.Set, tags)
	args = append(args, patchString(p.Date)...)
	return args, nil
}

func scanJournal(row scanner) (*model.Journal, error) {
	var (
		j                model.Journal
		tags             string
		created, updated string
	)
	if err := row.Scan(
		&j.ID, &j.CategoryID, &j.Title, &j.Content, &tags, &j.Date,
		&created, &updated, &j.UserID,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &j.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of journal %s: %w", j.ID, err)
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	if err := scanTimes(created, updated, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

// encodeTags stores tags as a JSON array, preserving order and duplicates.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}
