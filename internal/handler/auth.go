package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/anonbox/internal/model"
	"github.com/sakif/anonbox/internal/service"
)

// Authenticator is the part of service.AuthService the handler needs.
type Authenticator interface {
	Register(ctx context.Context, username string, email *string, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
}

// AuthHandler serves registration and login.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginUser is the user object returned on login. It is the only response
// that includes the email.
type loginUser struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Slug     string  `json:"slug"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /auth/register
// Body: {"username": "...", "email": "...", "password": "..."}
// Response: 201 {"id", "username", "slug"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Public())
}

// HandleLogin exchanges credentials for a bearer token.
//
// HTTP: POST /auth/login
// Body: {"username": "...", "password": "..."}
// Response: 200 {"token", "user": {"id", "username", "email", "slug"}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User: loginUser{
			ID:       result.User.ID,
			Username: result.User.Username,
			Email:    result.User.Email,
			Slug:     result.User.Slug,
		},
	})
}
