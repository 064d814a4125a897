package domain

import (
	"errors"
	"time"
)

// ErrDuplicate is returned by the repository when (user_id, device_id) is already linked.
var ErrDuplicate = errors.New("linkage already exists")

// Linkage pairs a user with a device under a display name chosen by that user.
// Only UserID owns it; a linkage id alone never authorizes anything.
type Linkage struct {
	ID        int64
	UserID    int64
	DeviceID  int64
	Name      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// OwnedBy reports whether userID owns the linkage.
func (l *Linkage) OwnedBy(userID int64) bool {
	return l != nil && l.UserID == userID
}
