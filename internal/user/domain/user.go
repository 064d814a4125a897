package domain

import (
	"errors"
	"time"
)

// ErrDuplicateEmail is returned by the repository when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// User is an account holder. Email is unique and compared exactly as stored.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

type UserStatus string

const (
	UserStatusPending UserStatus = "pending"
	UserStatusActive  UserStatus = "active"
)

// IsActive reports whether the user may obtain a session.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	switch u.Status {
	case "":
		u.Status = UserStatusPending
	case UserStatusPending, UserStatusActive:
	default:
		return errors.New("unknown user status")
	}
	return nil
}
