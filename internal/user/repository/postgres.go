package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispenser-identity/internal/db"
	"dispenser-identity/internal/user/domain"
)

const userColumns = `id, name, email, password_hash, status, created_at, updated_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with exactly the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists u and assigns its ID and CreatedAt from the database.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Name, u.Email, u.PasswordHash, string(u.Status),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes name, email and password hash of an existing user. A missing row is not an error.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, email = $3, password_hash = $4, updated_at = $5 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.PasswordHash, now,
	)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	u.UpdatedAt = &now
	return nil
}

// SetStatus changes the account status of user id.
func (r *PostgresRepository) SetStatus(ctx context.Context, id int64, status domain.UserStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u         domain.User
		status    string
		updatedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &status, &u.CreatedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Status = domain.UserStatus(status)
	if updatedAt.Valid {
		t := updatedAt.Time
		u.UpdatedAt = &t
	}
	return &u, nil
}
