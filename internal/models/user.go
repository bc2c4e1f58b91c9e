package models

import (
	"fmt"
	"strings"
)

// User is a registered account. The password hash is only readable through [User.PasswordHash]
// and is never part of a [Principal].
type User struct {
	record
	username     string
	email        string
	passwordHash string
}

// NewUser creates a User with creation timestamps set to now.
func NewUser(sequence int, username, email, passwordHash string) *User {
	return &User{
		record:       newRecord(sequence),
		username:     strings.TrimSpace(username),
		email:        strings.TrimSpace(email),
		passwordHash: passwordHash,
	}
}

func (u *User) Username() string     { return u.username }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }

func (u *User) SetUsername(username string) { u.username = strings.TrimSpace(username) }
func (u *User) SetEmail(email string)       { u.email = strings.TrimSpace(email) }

// Validate implements [Model].
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("username is required")
	}
	if u.email == "" {
		return fmt.Errorf("email is required")
	}
	if u.passwordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	return nil
}

// Principal returns the secret-free view of the user.
func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID(), Username: u.username, Email: u.email}
}

// Principal is the authenticated caller of a single request.
//
// It is built from a [User] row but never carries secret material.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
