package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

// ResourceService is what ResourceHandler needs from the service layer.
// *service.ResourceService satisfies it for every record kind.
type ResourceService[T model.Entity, C any, P any] interface {
	Kind() string
	Create(ctx context.Context, in C) (*T, error)
	List(ctx context.Context, filter repository.ListFilter) ([]T, error)
	GetUnscoped(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, patch P) error
	Delete(ctx context.Context, id string) error
}

// ResourceHandler serves the five CRUD routes of one record kind:
//
//	GET    /            → list (?user_id=, and ?type= for categories)
//	POST   /            → create → 201 {"id", "message"}
//	GET    /{id}        → get
//	PUT    /{id}        → partial update → {"message"}
//	DELETE /{id}        → delete → {"message"}
type ResourceHandler[T model.Entity, C any, P any] struct {
	svc    ResourceService[T, C, P]
	label  string // "Journal", used in success messages
	logger *slog.Logger
}

func NewResourceHandler[T model.Entity, C any, P any](svc ResourceService[T, C, P], logger *slog.Logger) *ResourceHandler[T, C, P] {
	return &ResourceHandler[T, C, P]{
		svc:    svc,
		label:  cases.Title(language.English).String(svc.Kind()),
		logger: logger,
	}
}

// Routes returns a router with the handler's routes, ready for Mount.
func (h *ResourceHandler[T, C, P]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

// HandleList returns the caller's records as a JSON array, [] when empty.
//
// HTTP: GET /api/{kind}?user_id=...
func (h *ResourceHandler[T, C, P]) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ListFilter{
		UserID: firstNonEmpty(q.Get("user_id"), q.Get("userId")),
		Type:   q.Get("type"),
	}

	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleCreate decodes the create input (camelCase keys accepted).
//
// HTTP: POST /api/{kind}
func (h *ResourceHandler[T, C, P]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in C
	if err := decodeBody(w, r, &in); err != nil {
		h.logger.Warn("invalid create request",
			slog.String("kind", h.svc.Kind()),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	item, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{
		ID:      (*item).EntityID(),
		Message: h.label + " created successfully",
	})
}

// HandleGet returns one record by id. Ownership is not checked.
//
// HTTP: GET /api/{kind}/{id}
func (h *ResourceHandler[T, C, P]) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetUnscoped(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleUpdate applies only the fields present in the body. {} is a valid
// patch that just touches updated_at.
//
// HTTP: PUT /api/{kind}/{id}
func (h *ResourceHandler[T, C, P]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch P
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: h.label + " updated successfully"})
}

// HTTP: DELETE /api/{kind}/{id}
func (h *ResourceHandler[T, C, P]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: h.label + " deleted successfully"})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
