package repository

import (
	"context"

	"dispenser-identity/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts u and fills in its ID and CreatedAt. Returns domain.ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	SetStatus(ctx context.Context, id int64, status domain.UserStatus) error
}
