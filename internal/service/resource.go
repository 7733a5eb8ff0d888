// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, applies defaults, logs events
//	Repository (Data layer)  → reads/writes the database
//
// Services depend on repository interfaces, never on *sqlite.DB, and return
// apperror values that the handler layer maps to HTTP status codes.
//
// The four record kinds (journals, categories, habits, todos) share one
// generic ResourceService. What differs per kind is small enough to pass in
// as two functions: build turns a create input into a record (or names the
// missing field) and checkPatch rejects patches the store cannot apply.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

// ResourceService handles create/list/get/update/delete for one record kind.
//
// T is the stored record, C its create input and P its patch type.
type ResourceService[T model.Entity, C any, P any] struct {
	kind       string
	repo       repository.ResourceRepository[T, P]
	build      func(in C) (*T, error)
	checkPatch func(patch P) error
	logger     *slog.Logger
}

func newResourceService[T model.Entity, C any, P any](
	kind string,
	repo repository.ResourceRepository[T, P],
	build func(C) (*T, error),
	checkPatch func(P) error,
	logger *slog.Logger,
) *ResourceService[T, C, P] {
	return &ResourceService[T, C, P]{
		kind:       kind,
		repo:       repo,
		build:      build,
		checkPatch: checkPatch,
		logger:     logger,
	}
}

// Kind returns the singular record name, e.g. "journal".
func (s *ResourceService[T, C, P]) Kind() string { return s.kind }

// Create validates the input, applies defaults and stores the record.
// The returned record carries the generated id and timestamps.
func (s *ResourceService[T, C, P]) Create(ctx context.Context, in C) (*T, error) {
	item, err := s.build(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		s.logger.Error("failed to create "+s.kind, slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating %s: %w", s.kind, err)
	}

	s.logger.Info(s.kind+" created", slog.String("id", (*item).EntityID()))
	return item, nil
}

// List returns the records owned by filter.UserID, in the kind's order.
func (s *ResourceService[T, C, P]) List(ctx context.Context, filter repository.ListFilter) ([]T, error) {
	filter.UserID = strings.TrimSpace(filter.UserID)
	if filter.UserID == "" {
		return nil, apperror.MissingField("user_id")
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list "+s.kind+"s",
			slog.String("user_id", filter.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing %ss: %w", s.kind, err)
	}
	return items, nil
}

// GetUnscoped returns one record by id regardless of who owns it.
func (s *ResourceService[T, C, P]) GetUnscoped(ctx context.Context, id string) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", s.kind+" ID is required")
	}
	return s.repo.GetUnscoped(ctx, id)
}

// Update applies a partial update. An empty patch is valid and only
// advances updated_at.
func (s *ResourceService[T, C, P]) Update(ctx context.Context, id string, patch P) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", s.kind+" ID is required")
	}
	if err := s.checkPatch(patch); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return err
	}

	s.logger.Info(s.kind+" updated", slog.String("id", id))
	return nil
}

func (s *ResourceService[T, C, P]) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", s.kind+" ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info(s.kind+" deleted", slog.String("id", id))
	return nil
}

// =========================================================================
// VALIDATION HELPERS
// =========================================================================

// required returns the value behind p, or a MissingField error. Presence is
// what counts: an empty string is a value.
func required(field string, p *string) (string, error) {
	if p == nil {
		return "", apperror.MissingField(field)
	}
	return *p, nil
}

func requireOwner(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperror.MissingField("user_id")
	}
	return userID, nil
}

// notNull rejects an explicit JSON null on a column that cannot hold NULL.
func notNull[T any](field string, o model.Optional[T]) error {
	if o.Set && o.Null {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s cannot be null", field))
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func emptyIfNil(p *string) *string {
	if p == nil {
		s := ""
		return &s
	}
	return p
}
