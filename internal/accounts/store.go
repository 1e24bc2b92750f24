// Package accounts persists users and implements registration and login.
package accounts

import (
	"context"
	"errors"
	"strings"

	"stockroom/internal/core"
)

// ErrNotFound indicates a requested user was not found.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateUsername indicates the username is already registered.
var ErrDuplicateUsername = errors.New("username already exists")

// Store defines persistence operations for users.
type Store interface {
	// Create inserts user and sets user.ID to the generated identifier.
	Create(ctx context.Context, user *core.User) error
	GetByID(ctx context.Context, id int64) (*core.User, error)
	// GetByUsername matches the username exactly.
	GetByUsername(ctx context.Context, username string) (*core.User, error)
	Close() error
}

func validateForCreate(user *core.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	if strings.TrimSpace(user.Username) == "" {
		return errors.New("username is empty")
	}
	if user.PasswordHash == "" {
		return errors.New("password hash is empty")
	}
	return nil
}

func cloneUser(u *core.User) *core.User {
	c := *u
	return &c
}
