// Package service holds the business rules of anonbox.
//
// Handlers call services, services call repositories:
//
//	AuthHandler    → AuthService    → UserRepository
//	               ↘ TokenService, PasswordService
//	MessageHandler → MessageService → UserRepository, MessageRepository
//
// Services validate input before touching storage and return apperror
// values; they know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/auth"
	"github.com/sakif/anonbox/internal/model"
	"github.com/sakif/anonbox/internal/repository"
	"github.com/sakif/anonbox/internal/slug"
)

// MaxUsernameLength is counted in runes.
const MaxUsernameLength = 50

// AuthService handles registration and login.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the logged-in user with the token issued for them.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account and derives its public slug.
//
// The username is trimmed before it is stored. An empty email string is
// treated as "no email". Duplicate username, email or slug come back from
// the repository as a Conflict; there is no lookup beforehand.
func (s *AuthService) Register(ctx context.Context, username string, email *string, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	switch {
	case username == "":
		return nil, apperror.ValidationFailed("username", "username is required")
	case strings.ContainsRune(username, 0):
		return nil, apperror.ValidationFailed("username", "username must not contain NUL characters")
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be at most %d characters", MaxUsernameLength))
	case password == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	case len(password) > auth.MaxPasswordBytes:
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	userSlug := slug.Derive(username)
	if userSlug == "" {
		return nil, apperror.ValidationFailed("username", "username must contain at least one letter or digit")
	}

	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			email = nil
		} else {
			email = &trimmed
		}
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Slug:         userSlug,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("service/auth: registering %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("slug", user.Slug),
	)
	return user, nil
}

// VerifyCredentials returns the user when password matches the stored hash.
// The username is trimmed the same way Register trims it. Unknown user and
// wrong password produce the same error.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("login for unknown user", slog.String("username", username))
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Debug("login with wrong password", slog.String("userID", user.ID))
			return nil, apperror.InvalidCredentials()
		}
		return nil, apperror.Internal("verify password", err)
	}

	return user, nil
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperror.ValidationFailed("", "username and password are required")
	}

	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperror.Internal("issue token", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}
