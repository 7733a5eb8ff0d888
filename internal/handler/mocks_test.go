package handler_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockJournalService stands in for the journal service.
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) Kind() string { return "journal" }

func (m *MockJournalService) Create(ctx context.Context, in model.NewJournal) (*model.Journal, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Journal), args.Error(1)
}

func (m *MockJournalService) List(ctx context.Context, filter repository.ListFilter) ([]model.Journal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Journal), args.Error(1)
}

func (m *MockJournalService) GetUnscoped(ctx context.Context, id string) (*model.Journal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Journal), args.Error(1)
}

func (m *MockJournalService) Update(ctx context.Context, id string, patch model.JournalPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockJournalService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAccountService covers both the account and the admin routes.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, in model.Registration) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, in model.Credentials) (*model.UserView, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserView), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, id string) (*model.UserView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserView), args.Error(1)
}

func (m *MockAccountService) ListUsers(ctx context.Context) ([]model.UserView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.UserView), args.Error(1)
}

func (m *MockAccountService) Detail(ctx context.Context, id string) (*model.UserDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserDetail), args.Error(1)
}

func (m *MockAccountService) TokenTTL() time.Duration { return time.Hour }
