package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/auth"
	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

// invalidLogin is the single message for every failed login, so a caller
// cannot tell an unknown email from a wrong secret.
const invalidLogin = "invalid email or password"

// AccountService handles registration, login and the admin account views.
//
// DEPENDENCIES:
//   - users   repository.UserRepository → account rows
//   - secrets auth.SecretScheme         → how secrets are stored and compared
//   - tokens  *auth.TokenService        → optional; nil disables token issuing
type AccountService struct {
	users   repository.UserRepository
	secrets auth.SecretScheme
	tokens  *auth.TokenService
	logger  *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	secrets auth.SecretScheme,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:   users,
		secrets: secrets,
		tokens:  tokens,
		logger:  logger,
	}
}

// TokensEnabled reports whether Login issues tokens.
func (s *AccountService) TokensEnabled() bool { return s.tokens != nil }

// TokenTTL is the lifetime of issued tokens, or 0 when tokens are disabled.
func (s *AccountService) TokenTTL() time.Duration {
	if s.tokens == nil {
		return 0
	}
	return s.tokens.TTL()
}

// Register creates an account. Username, email and password are all
// required. A taken username or email is a Conflict naming the field; the
// UNIQUE constraints catch the race the pre-check cannot.
func (s *AccountService) Register(ctx context.Context, in model.Registration) (*model.User, error) {
	switch {
	case in.Username == "":
		return nil, apperror.MissingField("username")
	case in.Email == "":
		return nil, apperror.MissingField("email")
	case in.Password == "":
		return nil, apperror.MissingField("password")
	}

	taken, err := s.users.UserExists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("checking existing users: %w", err)
	}
	if taken != "" {
		return nil, apperror.Conflict("user", taken)
	}

	sealed, err := s.secrets.Seal(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Secret:   sealed,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to register user",
			slog.String("username", in.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks the credentials, advances last_login_at and returns the
// public view of the account, with a token when issuing is enabled.
func (s *AccountService) Login(ctx context.Context, in model.Credentials) (*model.UserView, error) {
	if in.Email == nil || in.Password == nil {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}
	email, secret := *in.Email, *in.Password

	// Empty values can never match a registered account.
	if email == "" || secret == "" {
		s.logger.Info("login rejected", slog.String("reason", "empty credentials"))
		return nil, apperror.Unauthorized(invalidLogin)
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login rejected", slog.String("reason", "unknown email"))
			return nil, apperror.Unauthorized(invalidLogin)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !s.secrets.Match(user.Secret, secret) {
		s.logger.Info("login rejected",
			slog.String("user_id", user.ID),
			slog.String("reason", "secret mismatch"),
		)
		return nil, apperror.Unauthorized(invalidLogin)
	}

	if err := s.users.TouchLogin(ctx, user); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}

	view := user.View()
	if s.tokens != nil {
		token, err := s.tokens.Generate(user.ID)
		if err != nil {
			return nil, fmt.Errorf("issuing token: %w", err)
		}
		view.Token = token
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return &view, nil
}

// Get returns the public view of one account.
func (s *AccountService) Get(ctx context.Context, id string) (*model.UserView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := user.View()
	return &view, nil
}

// ListUsers returns every account, newest first.
func (s *AccountService) ListUsers(ctx context.Context) ([]model.UserView, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	views := make([]model.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return views, nil
}

// Detail returns one account with the number of records it owns per kind.
func (s *AccountService) Detail(ctx context.Context, id string) (*model.UserDetail, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := s.users.CountOwned(ctx, view.ID)
	if err != nil {
		return nil, fmt.Errorf("counting records of user %s: %w", view.ID, err)
	}
	return &model.UserDetail{User: *view, Stats: stats}, nil
}
