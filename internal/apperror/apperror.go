// Package apperror defines the domain error taxonomy shared by every layer.
//
// Lower layers return an *AppError wrapping one of the sentinel errors below.
// The HTTP layer maps the sentinel to a status code with errors.Is, so the
// repository and service layers never know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrIO              = errors.New("io error")
)

type AppError struct {
	Err     error  // sentinel the error belongs to
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, reported as detail for IO errors
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MissingField is the ValidationFailed shorthand for an absent required input.
func MissingField(field string) *AppError {
	return ValidationFailed(field, fmt.Sprintf("missing required field: %s", field))
}

// Conflict reports a uniqueness violation on field (e.g. "username").
func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when credentials or a token do not check out.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func PayloadTooLarge(limit int64) *AppError {
	return &AppError{
		Err:     ErrPayloadTooLarge,
		Message: fmt.Sprintf("payload exceeds the %d byte limit", limit),
	}
}

// IOFailed wraps a filesystem failure. The cause is kept so the caller can
// surface the detail; it is not expected to be retried automatically.
func IOFailed(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrIO,
		Message: fmt.Sprintf("failed to %s", op),
		Cause:   cause,
	}
}
