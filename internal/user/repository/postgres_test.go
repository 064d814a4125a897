package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"dispenser-identity/internal/user/domain"
)

var userCols = []string{"id", "name", "email", "password_hash", "status", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(conn), mock, conn
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`(?s)^SELECT .+ FROM users WHERE email = \$1$`).
		WithArgs("john@doe.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "John", "john@doe.com", "$2a$hash", "active", created, nil))

	u, err := repo.GetByEmail(context.Background(), "john@doe.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u == nil || u.ID != 1 || u.Status != domain.UserStatusActive || u.UpdatedAt != nil {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", u.CreatedAt, created)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(context.Background(), 9)
	if err != nil || u != nil {
		t.Fatalf("GetByID missing row = (%v, %v), want (nil, nil)", u, err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(errors.New("db down"))

	if _, err := repo.GetByID(context.Background(), 9); err == nil {
		t.Fatal("expected database error")
	}
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users .+ RETURNING id, created_at$`).
		WithArgs("John", "john@doe.com", "$2a$hash", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	u := &domain.User{Name: "John", Email: "john@doe.com", PasswordHash: "$2a$hash"}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 7 || u.Status != domain.UserStatusPending {
		t.Fatalf("unexpected user after create: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"})

	err := repo.Create(context.Background(), &domain.User{Email: "john@doe.com", PasswordHash: "h"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestSetStatus(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectExec(`UPDATE users SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs(int64(1), "active", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetStatus(context.Background(), 1, domain.UserStatusActive); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
}

func TestUpdate_SetsUpdatedAt(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectExec(`UPDATE users SET name = \$2`).
		WithArgs(int64(1), "Johnny", "john@doe.com", "h", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &domain.User{ID: 1, Name: "Johnny", Email: "john@doe.com", PasswordHash: "h"}
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.UpdatedAt == nil {
		t.Error("UpdatedAt should be set")
	}
}
