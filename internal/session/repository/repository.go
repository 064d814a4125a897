package repository

import (
	"context"
	"time"

	"dispenser-identity/internal/session/domain"
)

// Repository defines persistence for sessions. GetByID returns (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, userID int64) (*domain.Session, error)
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	Delete(ctx context.Context, id int64) error
	// DeleteCreatedBefore removes sessions created before cutoff and returns how many were removed.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
