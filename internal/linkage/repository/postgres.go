package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispenser-identity/internal/db"
	"dispenser-identity/internal/linkage/domain"
)

const (
	linkageColumns   = `id, user_id, device_id, name, created_at, updated_at`
	uniqueUserDevice = "uq_linkages_user_device"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a linkage repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the linkage for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Linkage, error) {
	return scanLinkage(r.db.QueryRowContext(ctx, `SELECT `+linkageColumns+` FROM linkages WHERE id = $1`, id))
}

// GetByUserAndDevice returns the user's linkage to the device, or nil if there is none.
func (r *PostgresRepository) GetByUserAndDevice(ctx context.Context, userID, deviceID int64) (*domain.Linkage, error) {
	return scanLinkage(r.db.QueryRowContext(ctx,
		`SELECT `+linkageColumns+` FROM linkages WHERE user_id = $1 AND device_id = $2`, userID, deviceID))
}

// ListByUser returns the user's linkages ordered by id.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Linkage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkageColumns+` FROM linkages WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Linkage
	for rows.Next() {
		l, err := scanLinkage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create persists l. The uq_linkages_user_device constraint closes the race between two
// concurrent links of the same pair.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.Linkage) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO linkages (user_id, device_id, name) VALUES ($1, $2, $3) RETURNING id, created_at`,
		l.UserID, l.DeviceID, l.Name,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, uniqueUserDevice) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert linkage: %w", err)
	}
	return nil
}

// UpdateName renames the linkage.
func (r *PostgresRepository) UpdateName(ctx context.Context, id int64, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE linkages SET name = $2, updated_at = $3 WHERE id = $1`, id, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rename linkage: %w", err)
	}
	return nil
}

// Delete removes the linkage and its settings.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM linkages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete linkage: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLinkage(row scanner) (*domain.Linkage, error) {
	var (
		l         domain.Linkage
		updatedAt sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.DeviceID, &l.Name, &l.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		l.UpdatedAt = &t
	}
	return &l, nil
}
