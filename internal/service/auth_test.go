package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/auth"
)

// newTestAuthService returns an AuthService wired with fake dependencies.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	// Cost 4 is bcrypt minimum — makes tests fast
	ps := auth.NewPasswordServiceForTest()

	return NewAuthService(repo, ts, ps, testLogger()), ts
}

func strPtr(s string) *string { return &s }

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "  Domm Smith ", strPtr("domm@example.com"), "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("User.ID should be set after create")
	}
	if user.Username != "Domm Smith" {
		t.Errorf("Username = %q, want trimmed %q", user.Username, "Domm Smith")
	}
	if user.Slug != "dommsmith" {
		t.Errorf("Slug = %q, want %q", user.Slug, "dommsmith")
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", user.PasswordHash)
	}
}

func TestRegister_EmptyEmailBecomesNil(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	a, err := svc.Register(context.Background(), "alice", strPtr(""), "pw")
	if err != nil {
		t.Fatalf("Register(alice) error = %v", err)
	}
	if a.Email != nil {
		t.Errorf("Email = %q, want nil", *a.Email)
	}

	// A second email-less account must not collide on email.
	if _, err := svc.Register(context.Background(), "bob", strPtr("   "), "pw"); err != nil {
		t.Fatalf("Register(bob) error = %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"missing username", "", "pw"},
		{"whitespace username", "   ", "pw"},
		{"missing password", "domm", ""},
		{"username too long", strings.Repeat("a", 51), "pw"},
		{"password too long", "domm", strings.Repeat("p", 73)},
		{"empty slug", "!!! ???", "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc, _ := newTestAuthService(t, repo)

			_, err := svc.Register(context.Background(), tt.username, nil, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
			if len(repo.users) != 0 {
				t.Errorf("repo has %d users, want 0", len(repo.users))
			}
		})
	}
}

func TestRegister_UsernameLimitCountsRunes(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	// 50 runes, 99 bytes.
	name := "a" + strings.Repeat("é", 49)
	if _, err := svc.Register(context.Background(), name, nil, "pw"); err != nil {
		t.Fatalf("Register(50 runes) error = %v", err)
	}
}

func TestRegister_Conflicts(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		email     *string
		wantField string
	}{
		{"duplicate username", "domm", nil, "username"},
		{"duplicate email", "other", strPtr("domm@example.com"), "email"},
		{"slug collision", "Domm", nil, "slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc, _ := newTestAuthService(t, repo)

			first, err := svc.Register(context.Background(), "domm", strPtr("domm@example.com"), "secret1")
			if err != nil {
				t.Fatalf("first Register() error = %v", err)
			}

			_, err = svc.Register(context.Background(), tt.username, tt.email, "secret2")
			if !errors.Is(err, apperror.ErrConflict) {
				t.Fatalf("Register() error = %v, want ErrConflict", err)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Field != tt.wantField {
				t.Errorf("conflict field = %v, want %q", appErr, tt.wantField)
			}

			// The original account still logs in.
			got, err := svc.VerifyCredentials(context.Background(), "domm", "secret1")
			if err != nil {
				t.Fatalf("VerifyCredentials() error = %v", err)
			}
			if got.ID != first.ID {
				t.Errorf("ID = %q, want %q", got.ID, first.ID)
			}
		})
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = apperror.Storage("insert user", errors.New("database is on fire"))
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "domm", nil, "secret1")
	if !errors.Is(err, apperror.ErrStorage) {
		t.Fatalf("Register() error = %v, want ErrStorage", err)
	}
}

// =========================================================================
// VerifyCredentials / Login TESTS
// =========================================================================

func TestVerifyCredentials_SameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "domm", nil, "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, unknownErr := svc.VerifyCredentials(context.Background(), "nobody", "secret1")
	_, wrongErr := svc.VerifyCredentials(context.Background(), "domm", "wrong")

	for name, err := range map[string]error{"unknown user": unknownErr, "wrong password": wrongErr} {
		if !errors.Is(err, apperror.ErrInvalidCredentials) {
			t.Errorf("%s: error = %v, want ErrInvalidCredentials", name, err)
		}
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("messages differ: %q vs %q", unknownErr.Error(), wrongErr.Error())
	}
}

func TestVerifyCredentials_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = apperror.Storage("get user", errors.New("boom"))
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.VerifyCredentials(context.Background(), "domm", "secret1")
	if !errors.Is(err, apperror.ErrStorage) {
		t.Fatalf("VerifyCredentials() error = %v, want ErrStorage", err)
	}
}

func TestLogin_TokenCarriesUserID(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "domm", nil, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "domm", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != user.ID {
		t.Errorf("User.ID = %q, want %q", result.User.ID, user.ID)
	}

	claims, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Username != "domm" {
		t.Errorf("claims.Username = %q, want %q", claims.Username, "domm")
	}
}

func TestLogin_MissingFields(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	for _, tc := range [][2]string{{"", "pw"}, {"domm", ""}} {
		_, err := svc.Login(context.Background(), tc[0], tc[1])
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Login(%q, %q) error = %v, want ErrValidation", tc[0], tc[1], err)
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "domm", nil, "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "domm", "secret2")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
	if result != nil {
		t.Error("Login() returned a result on failure")
	}
}

func TestLogin_PaddedUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), " domm ", nil, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), " domm ", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != user.ID {
		t.Errorf("User.ID = %q, want %q", result.User.ID, user.ID)
	}
}

func TestLogin_WhitespaceUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Login(context.Background(), "   ", "secret1")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Login() error = %v, want ErrValidation", err)
	}
}

func TestRegister_NULInUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "do\x00mm", nil, "secret1")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Register() error = %v, want ErrValidation", err)
	}
}
