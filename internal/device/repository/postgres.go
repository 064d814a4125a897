package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispenser-identity/internal/db"
	"dispenser-identity/internal/device/domain"
)

const deviceColumns = `id, identifier, password_hash, created_at, updated_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the device for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Device, error) {
	return scanDevice(r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id))
}

// GetByIdentifier returns the device with the given identifier, or nil if not found.
func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Device, error) {
	return scanDevice(r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE identifier = $1`, identifier))
}

// Create persists d and assigns its ID and CreatedAt from the database.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO devices (identifier, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		d.Identifier, d.PasswordHash,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return domain.ErrDuplicateIdentifier
		}
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// UpdatePasswordHash is a compare-and-swap on password_hash. It returns false when the device is
// gone or its hash changed since oldHash was read.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET password_hash = $3, updated_at = $4 WHERE id = $1 AND password_hash = $2`,
		id, oldHash, newHash, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("update device password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the device and, through the foreign keys, every linkage to it.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return nil
}

func scanDevice(row *sql.Row) (*domain.Device, error) {
	var (
		d         domain.Device
		updatedAt sql.NullTime
	)
	if err := row.Scan(&d.ID, &d.Identifier, &d.PasswordHash, &d.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		d.UpdatedAt = &t
	}
	return &d, nil
}
