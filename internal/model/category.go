package model

import "time"

// Category groups journal entries. Type is a free-form discriminator that
// lets one user keep several independent classification axes.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    string    `json:"user_id"`
}

func (c Category) EntityID() string { return c.ID }

type NewCategory struct {
	Name   *string `json:"name"`
	Type   *string `json:"type"`
	UserID string  `json:"user_id"`
}

type CategoryPatch struct {
	Name Optional[string] `json:"name"`
	Type Optional[string] `json:"type"`
}
