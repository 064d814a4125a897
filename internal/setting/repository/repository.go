package repository

import (
	"context"

	"dispenser-identity/internal/setting/domain"
)

// Repository defines persistence for settings. GetByID returns (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Setting, error)
	ListByLinkage(ctx context.Context, linkageID int64) ([]*domain.Setting, error)
	Create(ctx context.Context, s *domain.Setting) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}
