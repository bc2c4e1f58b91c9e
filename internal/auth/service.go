package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgEmailTaken         = "User with this email already exists"
	msgUsernameTaken      = "User with this username already exists"
)

// UserStore is the account persistence the [Service] needs.
type UserStore interface {
	UserFinder
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Session is returned by [Service.Register] and [Service.Login].
type Session struct {
	Token string            `json:"token"`
	User  *models.Principal `json:"user"`
}

// Service handles registration and password login.
type Service struct {
	users      UserStore
	issuer     *Issuer
	bcryptCost int
}

// NewService creates an account Service.
func NewService(users UserStore, issuer *Issuer, bcryptCost int) *Service {
	return &Service{users: users, issuer: issuer, bcryptCost: bcryptCost}
}

// Register creates an account and returns a session for it.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var fields []FieldError
	if username == "" {
		fields = append(fields, FieldError{Field: "username", Message: "Username is required"})
	}
	if !validEmail(email) {
		fields = append(fields, FieldError{Field: "email", Message: "Please include a valid email"})
	}
	switch {
	case len(password) < MinPasswordLength:
		fields = append(fields, FieldError{
			Field:   "password",
			Message: fmt.Sprintf("Please enter a password with %d or more characters", MinPasswordLength),
		})
	case len(password) > MaxPasswordLength:
		fields = append(fields, FieldError{
			Field:   "password",
			Message: fmt.Sprintf("Please enter a password of at most %d bytes", MaxPasswordLength),
		})
	}
	if len(fields) > 0 {
		return nil, Invalid("Invalid registration data", fields...)
	}

	if taken, err := s.exists(ctx, s.users.GetByEmail, email); err != nil {
		return nil, err
	} else if taken {
		return nil, Invalid(msgEmailTaken)
	}

	if taken, err := s.exists(ctx, s.users.GetByUsername, username); err != nil {
		return nil, err
	} else if taken {
		return nil, Invalid(msgUsernameTaken)
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(0, username, email, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, s.takenError(ctx, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.session(user.Principal())
}

// Login checks an email and password pair and returns a new session.
//
// Unknown email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	var fields []FieldError
	if !validEmail(email) {
		fields = append(fields, FieldError{Field: "email", Message: "Please include a valid email"})
	}
	if password == "" {
		fields = append(fields, FieldError{Field: "password", Message: "Password is required"})
	}
	if len(fields) > 0 {
		return nil, Invalid("Invalid login data", fields...)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, Invalid(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash(), password); err != nil {
		return nil, Invalid(msgInvalidCredentials)
	}

	return s.session(user.Principal())
}

// Me returns the principal attached to ctx.
func (s *Service) Me(ctx context.Context) (*models.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, Unauthenticated(CauseMissingCredential, nil)
	}
	return p, nil
}

// IssueFor signs a token for an existing user ID.
func (s *Service) IssueFor(userID string) (string, error) {
	return s.issuer.Issue(userID)
}

func (s *Service) session(p *models.Principal) (*Session, error) {
	token, err := s.issuer.Issue(p.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: p}, nil
}

func (s *Service) exists(ctx context.Context, lookup func(context.Context, string) (*models.User, error), key string) (bool, error) {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shared.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}
}

// takenError names the field a concurrent registration claimed first.
//
// The email check runs first in Register, so a username conflict found now means the username lost the race.
func (s *Service) takenError(ctx context.Context, username string) error {
	if taken, err := s.exists(ctx, s.users.GetByUsername, username); err == nil && taken {
		return Invalid(msgUsernameTaken)
	}
	return Invalid(msgEmailTaken)
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
