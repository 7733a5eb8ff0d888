package model

import "time"

// Journal is a single journal entry.
//
// Content is opaque: clients may encrypt it before sending and the server
// never parses or re-encodes it. CategoryID is a soft reference; an empty
// string means "uncategorized" and nothing checks that the category exists.
// Date is the client-chosen entry date as an ISO-8601 string.
type Journal struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	Date       string    `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     string    `json:"user_id"`
}

func (j Journal) EntityID() string { return j.ID }

// NewJournal is the create input. Title, Content and UserID are required;
// Date defaults to the creation time when omitted.
type NewJournal struct {
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	CategoryID *string  `json:"category_id"`
	Tags       []string `json:"tags"`
	Date       *string  `json:"date"`
	UserID     string   `json:"user_id"`
}

type JournalPatch struct {
	CategoryID Optional[string]   `json:"category_id"`
	Title      Optional[string]   `json:"title"`
	Content    Optional[string]   `json:"content"`
	Tags       Optional[[]string] `json:"tags"`
	Date       Optional[string]   `json:"date"`
}
