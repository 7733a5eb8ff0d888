package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

// AdminTokenHeader carries the shared admin token.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards the admin routes with a shared token and answers
// a wrong or missing one with 403. An empty token leaves the routes open;
// the server warns about that at startup.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, apperror.Forbidden("admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAccounts is the account side of the admin routes.
type AdminAccounts interface {
	Get(ctx context.Context, id string) (*model.UserView, error)
	ListUsers(ctx context.Context) ([]model.UserView, error)
	Detail(ctx context.Context, id string) (*model.UserDetail, error)
}

// OwnedLister lists one kind of record for a user. The result is encoded
// as-is, so it is any.
type OwnedLister func(ctx context.Context, userID string) (any, error)

// ListerFor adapts a resource service to an OwnedLister.
func ListerFor[T model.Entity, C any, P any](svc ResourceService[T, C, P]) OwnedLister {
	return func(ctx context.Context, userID string) (any, error) {
		return svc.List(ctx, repository.ListFilter{UserID: userID})
	}
}

// AdminHandler serves read-only views over all accounts and their records.
type AdminHandler struct {
	accounts AdminAccounts
	listers  map[string]OwnedLister // keyed by the plural path segment, "journals"
	logger   *slog.Logger
}

func NewAdminHandler(accounts AdminAccounts, listers map[string]OwnedLister, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, listers: listers, logger: logger}
}

// Routes returns the admin router, to be mounted behind the admin guard.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/users", h.HandleListUsers)
	r.Get("/users/{id}", h.HandleUserDetail)
	r.Get("/users/{id}/{kind}", h.HandleUserRecords)
	return r
}

// HTTP: GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HTTP: GET /api/admin/users/{id}
func (h *AdminHandler) HandleUserDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.accounts.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleUserRecords lists one kind of record owned by a user. An unknown
// user is a 404 rather than an empty list.
//
// HTTP: GET /api/admin/users/{id}/{kind}
func (h *AdminHandler) HandleUserRecords(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	list, ok := h.listers[kind]
	if !ok {
		writeError(w, apperror.NotFound("record kind", kind))
		return
	}

	userID := chi.URLParam(r, "id")
	if _, err := h.accounts.Get(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	items, err := list(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
