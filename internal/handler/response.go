package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON, every failure through
// writeError, so the whole API shares one error shape:
//
//	{"error": "not_found", "message": "journal not found with id abc123"}
//
// "error" is machine-readable and stable; "message" is for humans.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/momentkeep/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
// Field names the offending input for validation errors and conflicts;
// Detail carries the underlying cause of a storage failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// MessageResponse is the body of successful updates, deletes and registers.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreatedResponse is the body of a successful create.
type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status:
//
//	ErrValidation      → 400 validation_error
//	ErrUnauthorized    → 401 unauthorized
//	ErrForbidden       → 403 forbidden
//	ErrNotFound        → 404 not_found
//	ErrConflict        → 409 conflict
//	ErrPayloadTooLarge → 413 payload_too_large
//	ErrIO              → 500 io_error (with detail)
//	anything else      → 500 internal_error, details withheld
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	resp := ErrorResponse{
		Error:   "internal_error",
		Message: appErr.Message,
		Field:   appErr.Field,
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, resp.Error = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, resp.Error = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, resp.Error = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, resp.Error = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, resp.Error = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrPayloadTooLarge):
		status, resp.Error = http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, apperror.ErrIO):
		status, resp.Error = http.StatusInternalServerError, "io_error"
		if appErr.Cause != nil {
			resp.Detail = appErr.Cause.Error()
		}
		slog.Error("storage failure", slog.String("error", err.Error()))
	}

	writeJSON(w, status, resp)
}
