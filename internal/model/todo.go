package model

import "time"

// DefaultPriority is assigned to todos created without one.
const DefaultPriority = "medium"

type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsCompleted Flag      `json:"is_completed"`
	DueDate     *string   `json:"due_date"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id"`
}

func (t Todo) EntityID() string { return t.ID }

type NewTodo struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsCompleted Flag    `json:"is_completed"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	UserID      string  `json:"user_id"`
}

type TodoPatch struct {
	Title       Optional[string]  `json:"title"`
	Description Optional[*string] `json:"description"`
	IsCompleted Optional[Flag]    `json:"is_completed"`
	DueDate     Optional[*string] `json:"due_date"`
	Priority    Optional[string]  `json:"priority"`
}
