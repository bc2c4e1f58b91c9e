package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

func setupService(t *testing.T) (*Service, *repositories.UserRepository) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	users := repositories.NewUserRepository(db)
	return NewService(users, NewIssuer(testSecret, time.Hour), bcrypt.MinCost), users
}

// staleUsernameStore misses one username lookup, as if another request inserted the user
// between the availability check and the insert.
type staleUsernameStore struct {
	*repositories.UserRepository
	stale bool
}

func (s *staleUsernameStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.stale {
		s.stale = false
		return nil, shared.ErrNotFound
	}
	return s.UserRepository.GetByUsername(ctx, username)
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("Register", func(t *testing.T) {
		svc, users := setupService(t)

		session, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if session.Token == "" || session.User.Username != "alice" {
			t.Fatalf("unexpected session %+v", session)
		}

		stored, err := users.GetByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetByEmail() error = %v", err)
		}
		if stored.PasswordHash() == "hunter22" {
			t.Error("password stored in plain text")
		}
		if err := VerifyPassword(stored.PasswordHash(), "hunter22"); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}

		v := NewVerifier(svc.issuer, users)
		p, err := v.Verify(ctx, "Bearer "+session.Token)
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if p.ID != stored.ID() {
			t.Errorf("expected principal %s, got %s", stored.ID(), p.ID)
		}
	})

	t.Run("Register Validation", func(t *testing.T) {
		svc, _ := setupService(t)

		tt := []struct {
			name     string
			username string
			email    string
			password string
			field    string
		}{
			{name: "missing username", username: "", email: "a@example.com", password: "secret1", field: "username"},
			{name: "bad email", username: "a", email: "not-an-email", password: "secret1", field: "email"},
			{name: "short password", username: "a", email: "a@example.com", password: "12345", field: "password"},
			{name: "password over bcrypt limit", username: "a", email: "a@example.com", password: strings.Repeat("a", MaxPasswordLength+8), field: "password"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
				authErr, ok := AsError(err)
				if !ok || authErr.Kind != KindValidation {
					t.Fatalf("expected validation error, got %v", err)
				}
				if len(authErr.Fields) != 1 || authErr.Fields[0].Field != tc.field {
					t.Errorf("expected one %s field error, got %+v", tc.field, authErr.Fields)
				}
			})
		}
	})

	t.Run("Register Duplicates", func(t *testing.T) {
		svc, _ := setupService(t)

		if _, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		_, err := svc.Register(ctx, "alice2", "alice@example.com", "hunter22")
		if authErr, ok := AsError(err); !ok || authErr.Cause != msgEmailTaken {
			t.Errorf("expected duplicate email error, got %v", err)
		}

		_, err = svc.Register(ctx, "alice", "other@example.com", "hunter22")
		if authErr, ok := AsError(err); !ok || authErr.Cause != msgUsernameTaken {
			t.Errorf("expected duplicate username error, got %v", err)
		}
	})

	t.Run("Register Username Race", func(t *testing.T) {
		_, users := setupService(t)
		store := &staleUsernameStore{UserRepository: users}
		svc := NewService(store, NewIssuer(testSecret, time.Hour), bcrypt.MinCost)

		if _, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		store.stale = true
		_, err := svc.Register(ctx, "alice", "other@example.com", "hunter22")
		if authErr, ok := AsError(err); !ok || authErr.Cause != msgUsernameTaken {
			t.Errorf("expected duplicate username error, got %v", err)
		}
	})

	t.Run("Login", func(t *testing.T) {
		svc, _ := setupService(t)

		registered, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		session, err := svc.Login(ctx, "alice@example.com", "hunter22")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if session.User.ID != registered.User.ID {
			t.Errorf("expected user %s, got %s", registered.User.ID, session.User.ID)
		}

		_, wrongPassword := svc.Login(ctx, "alice@example.com", "nope-nope")
		_, unknownEmail := svc.Login(ctx, "bob@example.com", "hunter22")

		for _, err := range []error{wrongPassword, unknownEmail} {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		}
		if wrongPassword.Error() != unknownEmail.Error() {
			t.Errorf("login failures should be indistinguishable: %q vs %q", wrongPassword, unknownEmail)
		}
	})

	t.Run("Me", func(t *testing.T) {
		svc, _ := setupService(t)

		if _, err := svc.Me(ctx); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated without principal, got %v", err)
		}
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 0)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(hash)); cost != bcrypt.DefaultCost {
		t.Errorf("expected out of range cost to fall back to default, got %d", cost)
	}

	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Error("expected mismatch error")
	}
	if _, err := HashPassword("", bcrypt.MinCost); err == nil {
		t.Error("expected error for empty password")
	}
	if err := VerifyPassword("", "x"); err == nil {
		t.Error("expected error for empty hash")
	}
}
