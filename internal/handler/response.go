// Package handler contains the HTTP handlers. Handlers decode the request,
// call a service, and encode the result; they hold no business rules.
package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so success bodies
// and error bodies have one shape each.
//
// ERROR FORMAT:
//   {"error": "message not found: ...", "code": "not_found"}
//
// "error" is human-readable, "code" is stable and meant for the frontend to
// switch on. 5xx responses never carry internal detail; the cause is logged.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/anonbox/internal/apperror"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to an HTTP status and a machine code.
// errors.Is walks %w wrapping and AppError's multi-unwrap, so a service
// error like "service/message: resolving x: user not found" still matches.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid_credentials"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError translates err into a status code and error body. Server-side
// failures are logged with the request id and the full cause.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, status, ErrorResponse{
			Error: "internal server error",
			Code:  code,
		})
		return
	}

	message := http.StatusText(status)
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 64 << 10

// decodeJSON reads a JSON request body of at most MaxBodyBytes into dst.
// A malformed or oversized body is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("", "request body too large")
		}
		return apperror.ValidationFailed("", "invalid JSON body")
	}
	return nil
}

// HandleRoot is a liveness probe.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "anonbox backend running"})
}
