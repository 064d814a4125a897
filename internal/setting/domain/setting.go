package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTime is returned by Validate when hour or minute is out of range.
var ErrInvalidTime = errors.New("invalid time of day")

// Setting is a dispensing schedule entry (hour:minute) attached to a linkage.
// New settings start inactive.
type Setting struct {
	ID        int64
	LinkageID int64
	Hour      int
	Minute    int
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Validate checks the time of day.
func (s *Setting) Validate() error {
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23", ErrInvalidTime)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("%w: minute must be between 0 and 59", ErrInvalidTime)
	}
	return nil
}
