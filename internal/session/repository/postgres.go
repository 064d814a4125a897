package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispenser-identity/internal/db"
	"dispenser-identity/internal/session/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create inserts a session for userID. The users foreign key rejects unknown users.
func (r *PostgresRepository) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	s := &domain.Session{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (user_id) VALUES ($1) RETURNING id, created_at`, userID,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteCreatedBefore removes every session created before cutoff.
func (r *PostgresRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return res.RowsAffected()
}
