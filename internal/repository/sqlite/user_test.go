package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/model"
)

func createTestUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: email, Secret: "p1"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser_TimestampsMatch(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "u1", "e1@x.com")

	if u.ID == "" {
		t.Fatal("expected user to have an ID")
	}
	if !u.CreatedAt.Equal(u.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v", u.CreatedAt, u.UpdatedAt)
	}
	if u.LastLoginAt == nil || !u.LastLoginAt.Equal(u.CreatedAt) {
		t.Errorf("LastLoginAt = %v, want %v", u.LastLoginAt, u.CreatedAt)
	}

	got, err := db.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Secret != "p1" {
		t.Errorf("Secret = %q, want %q", got.Secret, "p1")
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(u.CreatedAt) {
		t.Errorf("stored LastLoginAt = %v, want %v", got.LastLoginAt, u.CreatedAt)
	}
}

func TestCreateUser_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "u1", "e1@x.com")

	tests := []struct {
		name      string
		username  string
		email     string
		wantField string
	}{
		{"same username", "u1", "other@x.com", "username"},
		{"same email", "other", "e1@x.com", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateUser(context.Background(), &model.User{
				Username: tt.username, Email: tt.email, Secret: "s",
			})
			if !errors.Is(err, apperror.ErrConflict) {
				t.Fatalf("error = %v, want ErrConflict", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestFindUserByEmail(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "u1", "e1@x.com")

	got, err := db.FindUserByEmail(context.Background(), "e1@x.com")
	if err != nil {
		t.Fatalf("FindUserByEmail() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %q, want %q", got.ID, u.ID)
	}

	_, err = db.FindUserByEmail(context.Background(), "nobody@x.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserExists(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "u1", "e1@x.com")
	createTestUser(t, db, "u2", "e2@x.com")

	tests := []struct {
		name     string
		username string
		email    string
		want     string
	}{
		{"free", "u3", "e3@x.com", ""},
		{"username taken", "u1", "e3@x.com", "username"},
		{"email taken", "u3", "e1@x.com", "email"},
		{"username wins when both match different rows", "u2", "e1@x.com", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.UserExists(context.Background(), tt.username, tt.email)
			if err != nil {
				t.Fatalf("UserExists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UserExists() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LOGIN / ADMIN TESTS
// =========================================================================

func TestTouchLogin_AdvancesTimestamps(t *testing.T) {
	db := newTestDB(t, WithClock(frozenClock()))
	u := createTestUser(t, db, "u1", "e1@x.com")
	registered := u.CreatedAt

	if err := db.TouchLogin(context.Background(), u); err != nil {
		t.Fatalf("TouchLogin() error = %v", err)
	}
	if !u.LastLoginAt.After(registered) {
		t.Errorf("LastLoginAt %v not after %v", u.LastLoginAt, registered)
	}

	got, err := db.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if !got.UpdatedAt.Equal(*got.LastLoginAt) {
		t.Errorf("UpdatedAt %v != LastLoginAt %v", got.UpdatedAt, *got.LastLoginAt)
	}
	if !got.CreatedAt.Equal(registered) {
		t.Errorf("CreatedAt changed: %v -> %v", registered, got.CreatedAt)
	}
}

func TestTouchLogin_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.TouchLogin(context.Background(), &model.User{ID: "ghost"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListUsers_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "first", "1@x.com")
	createTestUser(t, db, "second", "2@x.com")

	users, err := db.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len = %d, want 2", len(users))
	}
	if users[0].Username != "second" || users[1].Username != "first" {
		t.Errorf("order = [%s %s], want [second first]", users[0].Username, users[1].Username)
	}
}

func TestCountOwned(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestJournal(t, db, "u1", "2024-01-01")
	createTestJournal(t, db, "u1", "2024-01-02")
	createTestJournal(t, db, "u2", "2024-01-02")
	if err := db.Todos().Create(ctx, &model.Todo{Title: "t", UserID: "u1"}); err != nil {
		t.Fatalf("create todo: %v", err)
	}

	stats, err := db.CountOwned(ctx, "u1")
	if err != nil {
		t.Fatalf("CountOwned() error = %v", err)
	}
	want := model.UserStats{Journals: 2, Todos: 1}
	if stats != want {
		t.Errorf("CountOwned() = %+v, want %+v", stats, want)
	}
}
