package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
)

const bearerPrefix = "Bearer "

// UserFinder resolves a user ID to a principal without secret material.
//
// Implementations return (nil, nil) when no live user has the ID.
type UserFinder interface {
	FindPrincipal(ctx context.Context, id string) (*models.Principal, error)
}

// Verifier checks bearer credentials and resolves the principal they name.
type Verifier struct {
	issuer *Issuer
	users  UserFinder
}

// NewVerifier creates a Verifier that checks tokens with issuer and looks subjects up in users.
func NewVerifier(issuer *Issuer, users UserFinder) *Verifier {
	return &Verifier{issuer: issuer, users: users}
}

// Verify authenticates an Authorization header value.
//
// Signature, payload and expiry failures all produce the same [CauseInvalidCredential] error;
// the underlying reason is only available through [errors.Unwrap].
// A store failure is returned as-is and is not an authentication failure.
func (v *Verifier) Verify(ctx context.Context, header string) (*models.Principal, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return nil, Unauthenticated(CauseMissingCredential, nil)
	}

	subject, err := v.issuer.Subject(raw)
	if err != nil {
		return nil, Unauthenticated(CauseInvalidCredential, err)
	}

	principal, err := v.users.FindPrincipal(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if principal == nil {
		return nil, Unauthenticated(CausePrincipalGone, fmt.Errorf("no user %s", subject))
	}

	return principal, nil
}
