// Package repository declares the storage contracts the service layer depends on.
//
// Services receive these interfaces, never a concrete *sqlite.DB, so tests
// can hand them in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/momentkeep/internal/model"
)

// ListFilter scopes a list query. UserID is mandatory; Type only applies to
// kinds that carry a type discriminator (categories) and is ignored elsewhere.
type ListFilter struct {
	UserID string
	Type   string
}

// ResourceRepository is the CRUD contract shared by every record kind.
//
// Create fills in the ID and timestamps of the passed record. GetUnscoped
// does not check ownership; it exists for callers that legitimately need
// cross-user reads and for the id-addressed API routes. Update applies only
// the fields set in the patch and always advances updated_at.
type ResourceRepository[T any, P any] interface {
	Create(ctx context.Context, item *T) error
	GetUnscoped(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, filter ListFilter) ([]T, error)
	Update(ctx context.Context, id string, patch P) error
	Delete(ctx context.Context, id string) error
}

type (
	JournalRepository  = ResourceRepository[model.Journal, model.JournalPatch]
	CategoryRepository = ResourceRepository[model.Category, model.CategoryPatch]
	HabitRepository    = ResourceRepository[model.Habit, model.HabitPatch]
	TodoRepository     = ResourceRepository[model.Todo, model.TodoPatch]
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UserExists reports which of username/email is already taken, checking
	// username first. It returns "" when neither is.
	UserExists(ctx context.Context, username, email string) (string, error)
	TouchLogin(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
	CountOwned(ctx context.Context, userID string) (model.UserStats, error)
}
