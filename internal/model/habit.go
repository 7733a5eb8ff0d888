package model

import "time"

// Habit is a recurring goal the user tracks. Frequency and Target are free
// text ("daily", "3"); StartDate and EndDate are ISO date strings.
type Habit struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Frequency   string    `json:"frequency"`
	Target      Text      `json:"target"`
	StartDate   string    `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id"`
}

func (h Habit) EntityID() string { return h.ID }

type NewHabit struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	Target      *Text   `json:"target"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	UserID      string  `json:"user_id"`
}

type HabitPatch struct {
	Name        Optional[string]  `json:"name"`
	Description Optional[*string] `json:"description"`
	Frequency   Optional[string]  `json:"frequency"`
	Target      Optional[Text]    `json:"target"`
	StartDate   Optional[string]  `json:"start_date"`
	EndDate     Optional[*string] `json:"end_date"`
}
