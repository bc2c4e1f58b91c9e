package auth

import (
	"errors"
	"fmt"
)

// Kind classifies a guard failure.
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindForbidden
	KindNotFound
	KindValidation
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
)

// Public causes. Only these ever reach [Error.Error].
const (
	CauseMissingCredential = "missing credential"
	CauseInvalidCredential = "invalid or expired credential"
	CausePrincipalGone     = "principal no longer exists"
	CauseNotOwner          = "not resource owner"
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// Error is the structured failure reported by the guard and by account operations.
//
// Err holds the internal reason (a jwt parse error, a store error) and is meant for logs only.
type Error struct {
	Kind   Kind
	Cause  string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Cause
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthenticated builds a [KindUnauthenticated] error.
func Unauthenticated(cause string, err error) *Error {
	return &Error{Kind: KindUnauthenticated, Cause: cause, Err: err}
}

// Forbidden builds a [KindForbidden] error.
func Forbidden(cause string) *Error {
	return &Error{Kind: KindForbidden, Cause: cause}
}

// NotFound builds a [KindNotFound] error.
func NotFound(cause string) *Error {
	return &Error{Kind: KindNotFound, Cause: cause}
}

// Invalid builds a [KindValidation] error with optional per-field details.
func Invalid(cause string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Cause: cause, Fields: fields}
}

// AsError extracts an [*Error] from err's chain.
func AsError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
