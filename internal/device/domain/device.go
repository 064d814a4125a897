package domain

import (
	"errors"
	"time"
)

// ErrDuplicateIdentifier is returned by the repository when the identifier is already provisioned.
var ErrDuplicateIdentifier = errors.New("device identifier already exists")

// Device is a physical dispenser. Its password is a single shared secret: every linkage that
// points at the device authenticates against the same hash.
type Device struct {
	ID           int64
	Identifier   string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
