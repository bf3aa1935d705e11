// Package auth provides session tokens, password hashing, and the HTTP gate
// that protects owner-only routes.
//
// SESSION MODEL:
// Sessions are never stored on the server. At login we mint a signed JWT
// carrying the user's id and username; the client stores it and sends it
// back as "Authorization: Bearer <token>". Every protected request verifies
// the signature and expiry with the shared secret, no DB lookup needed.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"id":"...","username":"...","sub":"...","iss":"anonbox","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Tokens cannot be revoked before they expire; there is no blocklist.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/anonbox/internal/apperror"
)

const (
	// TokenTTL is how long an issued session token stays valid.
	TokenTTL = 7 * 24 * time.Hour

	issuer = "anonbox"

	// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
	MinSecretLength = 16

	// DevSecret is used when no JWT_SECRET is configured. Fine for local
	// development, never for a deployment.
	DevSecret = "dev_secret_only_for_local"
)

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Claims is the verified identity carried by a session token.
//
// UserID and Username use the short "id"/"username" keys clients already
// decode; Subject mirrors UserID for tooling that expects "sub".
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the user, valid for TokenTTL.
func (s *TokenService) Issue(userID, username string) (string, error) {
	return s.IssueWithDuration(userID, username, TokenTTL)
}

// IssueWithDuration creates a token with a custom lifetime. A negative
// duration yields an already expired token, which tests rely on.
func (s *TokenService) IssueWithDuration(userID, username string, d time.Duration) (string, error) {
	now := s.now()

	c := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string and returns its claims.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Algorithm is HS256 (blocks "alg":"none" and key confusion)
//   - Issuer matches
//   - "exp" is present and in the future
//
// Every failure wraps apperror.ErrUnauthorized.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Unauthorized("token expired", err)
		}
		return nil, apperror.Unauthorized("invalid token", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("invalid token claims", nil)
	}
	if c.UserID == "" || c.Subject != c.UserID {
		return nil, apperror.Unauthorized("token has no user", nil)
	}

	return c, nil
}
