// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services and repositories return *AppError values that wrap one of the
// sentinel errors below. The HTTP layer checks the sentinel with errors.Is
// and picks a status code, so nothing below the handler knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStorage            = errors.New("storage error")
	ErrInternal           = errors.New("internal error")
)

type AppError struct {
	Err     error  // sentinel, used with errors.Is
	Message string // human-readable message, safe to show to clients
	Field   string // optional: field causing the error
	Cause   error  // optional: underlying error, for logs only
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches the
// domain kind and errors.As can still reach a driver error.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation on the given field.
func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// InvalidCredentials is deliberately identical for "no such user" and
// "wrong password" so callers cannot enumerate usernames.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid username or password",
	}
}

func Unauthorized(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
		Cause:   cause,
	}
}

// Storage wraps a database failure. The cause is kept for server-side logs;
// clients only ever see the generic message.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: "storage failure during " + op,
		Cause:   cause,
	}
}

func Internal(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: "internal failure during " + op,
		Cause:   cause,
	}
}
