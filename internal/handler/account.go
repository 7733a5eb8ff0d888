package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/momentkeep/internal/auth"
	"github.com/sakif/momentkeep/internal/model"
)

// AccountService is the part of service.AccountService the handlers use.
type AccountService interface {
	Register(ctx context.Context, in model.Registration) (*model.User, error)
	Login(ctx context.Context, in model.Credentials) (*model.UserView, error)
	Get(ctx context.Context, id string) (*model.UserView, error)
	TokenTTL() time.Duration
}

// AccountHandler serves registration, login, logout and the current user.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"username": "...", "email": "...", "password": "..."}
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in model.Registration
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.accounts.Register(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// HandleLogin checks credentials and returns the user view.
//
// HTTP: POST /api/auth/login
//
// When token issuing is enabled the token is in the body and also set as an
// HttpOnly cookie, so browser clients need not handle it themselves.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in model.Credentials
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	if view.Token != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    view.Token,
			Path:     "/",
			MaxAge:   int(h.accounts.TokenTTL().Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleLogout clears the token cookie. Tokens are stateless, so one that
// was copied elsewhere stays valid until it expires.
//
// HTTP: POST /api/auth/logout
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HandleMe returns the user the request's token belongs to.
//
// HTTP: GET /api/auth/me (behind auth.RequireAuth)
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	view, err := h.accounts.Get(r.Context(), userID)
	if err != nil {
		h.logger.Warn("token for unknown user", slog.String("user_id", userID))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
