package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispenser-identity/internal/db"
	"dispenser-identity/internal/setting/domain"
)

const settingColumns = `id, linkage_id, hour, minute, active, created_at, updated_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a setting repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the setting for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Setting, error) {
	return scanSetting(r.db.QueryRowContext(ctx, `SELECT `+settingColumns+` FROM settings WHERE id = $1`, id))
}

// ListByLinkage returns the linkage's settings ordered by time of day.
func (r *PostgresRepository) ListByLinkage(ctx context.Context, linkageID int64) ([]*domain.Setting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+settingColumns+` FROM settings WHERE linkage_id = $1 ORDER BY hour, minute, id`, linkageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists s and assigns its ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Setting) error {
	if err := s.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO settings (linkage_id, hour, minute, active) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		s.LinkageID, s.Hour, s.Minute, s.Active,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert setting: %w", err)
	}
	return nil
}

// SetActive flips the active flag.
func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE settings SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update setting: %w", err)
	}
	return nil
}

// Delete removes the setting.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSetting(row scanner) (*domain.Setting, error) {
	var (
		s         domain.Setting
		updatedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.LinkageID, &s.Hour, &s.Minute, &s.Active, &s.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		s.UpdatedAt = &t
	}
	return &s, nil
}
