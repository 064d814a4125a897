package repository

import (
	"context"

	"dispenser-identity/internal/device/domain"
)

// Repository defines persistence for devices. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Device, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Device, error)
	// Create inserts d and fills in its ID and CreatedAt. Returns domain.ErrDuplicateIdentifier on conflict.
	Create(ctx context.Context, d *domain.Device) error
	// UpdatePasswordHash swaps the hash only if it still equals oldHash; it reports whether the row changed.
	UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error)
	Delete(ctx context.Context, id int64) error
}
