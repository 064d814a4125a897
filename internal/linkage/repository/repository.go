package repository

import (
	"context"

	"dispenser-identity/internal/linkage/domain"
)

// Repository defines persistence for linkages. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Linkage, error)
	GetByUserAndDevice(ctx context.Context, userID, deviceID int64) (*domain.Linkage, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Linkage, error)
	// Create inserts l and fills in its ID and CreatedAt. Returns domain.ErrDuplicate when the
	// (user, device) pair already exists, including when a concurrent insert won the race.
	Create(ctx context.Context, l *domain.Linkage) error
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}
