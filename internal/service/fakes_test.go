package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// Hand-written in-memory stand-ins for the repository interfaces. They keep
// just enough behaviour to observe what the service passes down: created
// records, the last patch per id, and injectable failures.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeResourceRepo[T model.Entity, P any] struct {
	mu      sync.Mutex
	items   map[string]*T
	order   []string
	patches map[string]P
	nextID  int
	setID   func(item *T, id string)
	ownerOf func(item *T) string
	failErr error
}

func newFakeRepo[T model.Entity, P any](setID func(*T, string), ownerOf func(*T) string) *fakeResourceRepo[T, P] {
	return &fakeResourceRepo[T, P]{
		items:   make(map[string]*T),
		patches: make(map[string]P),
		setID:   setID,
		ownerOf: ownerOf,
	}
}

func (f *fakeResourceRepo[T, P]) Create(_ context.Context, item *T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.nextID++
	f.setID(item, fmt.Sprintf("fake-%d", f.nextID))
	stored := *item
	f.items[(*item).EntityID()] = &stored
	f.order = append(f.order, (*item).EntityID())
	return nil
}

func (f *fakeResourceRepo[T, P]) GetUnscoped(_ context.Context, id string) (*T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.NotFound("item", id)
	}
	result := *item
	return &result, nil
}

func (f *fakeResourceRepo[T, P]) List(_ context.Context, filter repository.ListFilter) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	result := make([]T, 0)
	for _, id := range f.order {
		if item, ok := f.items[id]; ok && f.ownerOf(item) == filter.UserID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (f *fakeResourceRepo[T, P]) Update(_ context.Context, id string, patch P) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return apperror.NotFound("item", id)
	}
	f.patches[id] = patch
	return nil
}

func (f *fakeResourceRepo[T, P]) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return apperror.NotFound("item", id)
	}
	delete(f.items, id)
	return nil
}

func newFakeJournals() *fakeResourceRepo[model.Journal, model.JournalPatch] {
	return newFakeRepo[model.Journal, model.JournalPatch](
		func(j *model.Journal, id string) { j.ID = id },
		func(j *model.Journal) string { return j.UserID },
	)
}

func newFakeTodos() *fakeResourceRepo[model.Todo, model.TodoPatch] {
	return newFakeRepo[model.Todo, model.TodoPatch](
		func(t *model.Todo, id string) { t.ID = id },
		func(t *model.Todo) string { return t.UserID },
	)
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	now    time.Time
	nextID int
	stats  map[string]model.UserStats
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]*model.User),
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		stats: make(map[string]model.UserStats),
	}
}

func (f *fakeUserRepo) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("user", "username")
		}
		if existing.Email == u.Email {
			return apperror.Conflict("user", "email")
		}
	}
	f.nextID++
	now := f.tick()
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt, u.UpdatedAt, u.LastLoginAt = now, now, &now
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UserExists(_ context.Context, username, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	field := ""
	for _, u := range f.users {
		if u.Username == username {
			return "username", nil
		}
		if u.Email == email {
			field = "email"
		}
	}
	return field, nil
}

func (f *fakeUserRepo) TouchLogin(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[u.ID]
	if !ok {
		return apperror.NotFound("user", u.ID)
	}
	now := f.tick()
	stored.LastLoginAt, stored.UpdatedAt = &now, now
	u.LastLoginAt, u.UpdatedAt = &now, now
	return nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (f *fakeUserRepo) CountOwned(_ context.Context, userID string) (model.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats[userID], nil
}
