package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	tu "github.com/desertthunder/setlist/internal/testing"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestIssuer(t *testing.T) {
	clock := tu.NewFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewIssuer(testSecret, 7*24*time.Hour).WithClock(clock.Now)

	t.Run("Round trip", func(t *testing.T) {
		token, err := issuer.Issue("user-1")
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		subject, err := issuer.Subject(token)
		if err != nil {
			t.Fatalf("Subject() error = %v", err)
		}
		if subject != "user-1" {
			t.Errorf("expected subject user-1, got %s", subject)
		}
	})

	t.Run("Empty subject", func(t *testing.T) {
		if _, err := issuer.Issue(""); err == nil {
			t.Error("expected error issuing token without subject")
		}
	})

	t.Run("Rejects non-HS256", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}

		if _, err := issuer.Subject(token); err == nil {
			t.Error("expected HS512 token to be rejected")
		}
	})

	t.Run("Requires exp", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}

		if _, err := issuer.Subject(token); err == nil {
			t.Error("expected token without exp to be rejected")
		}
	})
}

func TestVerifier(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	alice := &models.Principal{ID: "alice-id", Username: "alice", Email: "alice@example.com"}

	setup := func() (*Verifier, *Issuer, *tu.StubUserFinder, *tu.FakeClock) {
		clock := tu.NewFakeClock(start)
		issuer := NewIssuer(testSecret, time.Hour).WithClock(clock.Now)
		users := &tu.StubUserFinder{Principals: map[string]*models.Principal{alice.ID: alice}}
		return NewVerifier(issuer, users), issuer, users, clock
	}

	t.Run("Valid token", func(t *testing.T) {
		v, issuer, users, _ := setup()
		token, _ := issuer.Issue(alice.ID)

		p, err := v.Verify(ctx, "Bearer "+token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if p.ID != alice.ID || p.Username != "alice" {
			t.Errorf("unexpected principal %+v", p)
		}
		if users.Calls() != 1 {
			t.Errorf("expected exactly one store lookup, got %d", users.Calls())
		}
	})

	t.Run("Missing header", func(t *testing.T) {
		v, _, users, _ := setup()

		for _, header := range []string{"", "Bearer ", "Bearer    "} {
			_, err := v.Verify(ctx, header)
			assertUnauthenticated(t, err, CauseMissingCredential)
		}
		if users.Calls() != 0 {
			t.Errorf("expected no store lookups, got %d", users.Calls())
		}
	})

	t.Run("Wrong secret", func(t *testing.T) {
		v, _, users, clock := setup()
		other := NewIssuer("some-other-secret", time.Hour).WithClock(clock.Now)
		token, _ := other.Issue(alice.ID)

		_, err := v.Verify(ctx, "Bearer "+token)
		assertUnauthenticated(t, err, CauseInvalidCredential)
		if users.Calls() != 0 {
			t.Errorf("expected no store lookups, got %d", users.Calls())
		}
	})

	t.Run("Expired", func(t *testing.T) {
		v, issuer, _, clock := setup()
		token, _ := issuer.Issue(alice.ID)

		clock.Advance(time.Hour + time.Second)

		_, err := v.Verify(ctx, "Bearer "+token)
		assertUnauthenticated(t, err, CauseInvalidCredential)
	})

	t.Run("Malformed", func(t *testing.T) {
		v, _, _, _ := setup()

		_, err := v.Verify(ctx, "Bearer not.a.jwt")
		assertUnauthenticated(t, err, CauseInvalidCredential)
	})

	t.Run("Expired and malformed are indistinguishable", func(t *testing.T) {
		v, issuer, _, clock := setup()
		token, _ := issuer.Issue(alice.ID)
		clock.Advance(2 * time.Hour)

		_, expired := v.Verify(ctx, "Bearer "+token)
		_, malformed := v.Verify(ctx, "Bearer garbage")

		if expired.Error() != malformed.Error() {
			t.Errorf("expected identical messages, got %q and %q", expired.Error(), malformed.Error())
		}
	})

	t.Run("Principal gone", func(t *testing.T) {
		v, issuer, _, _ := setup()
		token, _ := issuer.Issue("deleted-user")

		_, err := v.Verify(ctx, "Bearer "+token)
		assertUnauthenticated(t, err, CausePrincipalGone)
	})

	t.Run("Store failure", func(t *testing.T) {
		v, issuer, users, _ := setup()
		users.Err = errors.New("db down")
		token, _ := issuer.Issue(alice.ID)

		_, err := v.Verify(ctx, "Bearer "+token)
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, ErrUnauthenticated) {
			t.Errorf("store failure should not read as unauthenticated: %v", err)
		}
	})

	t.Run("Principal carries no secrets", func(t *testing.T) {
		v, issuer, _, _ := setup()
		token, _ := issuer.Issue(alice.ID)

		p, err := v.Verify(ctx, "Bearer "+token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if strings.Contains(p.Email+p.Username+p.ID, "$2a$") {
			t.Errorf("principal contains hash material: %+v", p)
		}
	})
}

func assertUnauthenticated(t *testing.T, err error, cause string) {
	t.Helper()

	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	authErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if authErr.Cause != cause {
		t.Errorf("expected cause %q, got %q", cause, authErr.Cause)
	}
}

func TestCheckOwnership(t *testing.T) {
	p := &models.Principal{ID: "6f1c7f2e-6a0b-4d5e-9a3c-1b2d3e4f5a6b"}

	tt := []struct {
		name    string
		owner   string
		allowed bool
	}{
		{name: "owner", owner: p.ID, allowed: true},
		{name: "other user", owner: "0a1b2c3d-0000-4000-8000-000000000000", allowed: false},
		{name: "different casing", owner: strings.ToUpper(p.ID), allowed: false},
		{name: "empty owner", owner: "", allowed: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckOwnership(tc.owner, p)
			if tc.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
		})
	}

	t.Run("nil principal", func(t *testing.T) {
		if err := CheckOwnership(p.ID, nil); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestError(t *testing.T) {
	t.Run("Is matches only its kind", func(t *testing.T) {
		err := error(NotFound("playlist"))
		if !errors.Is(err, ErrNotFound) {
			t.Error("expected ErrNotFound")
		}
		if errors.Is(err, ErrForbidden) {
			t.Error("did not expect ErrForbidden")
		}
	})

	t.Run("Message carries only the public cause", func(t *testing.T) {
		err := Unauthenticated(CauseInvalidCredential, jwt.ErrTokenExpired)
		if err.Error() != "unauthenticated: "+CauseInvalidCredential {
			t.Errorf("unexpected message %q", err.Error())
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			t.Error("expected internal cause to stay reachable through Unwrap")
		}
	})

	t.Run("Context", func(t *testing.T) {
		if _, ok := PrincipalFromContext(context.Background()); ok {
			t.Error("expected no principal on empty context")
		}
		p := &models.Principal{ID: "u-1"}
		got, ok := PrincipalFromContext(ContextWithPrincipal(context.Background(), p))
		if !ok || got != p {
			t.Errorf("expected principal from context, got %+v", got)
		}
	})
}
