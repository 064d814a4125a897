package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(conn), mock, conn
}

func TestCreate(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO sessions \(user_id\) VALUES \(\$1\) RETURNING id, created_at`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), now))

	s, err := repo.Create(context.Background(), 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID != 10 || s.UserID != 1 || !s.CreatedAt.Equal(now) {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestCreate_UnknownUser(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectQuery(`INSERT INTO sessions`).WithArgs(int64(99)).WillReturnError(errors.New("violates foreign key constraint"))
	if _, err := repo.Create(context.Background(), 99); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectQuery(`FROM sessions WHERE id = \$1`).WithArgs(int64(4)).WillReturnError(sql.ErrNoRows)
	s, err := repo.GetByID(context.Background(), 4)
	if err != nil || s != nil {
		t.Fatalf("GetByID = (%v, %v), want (nil, nil)", s, err)
	}
}

func TestDeleteCreatedBefore(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec(`DELETE FROM sessions WHERE created_at < \$1`).WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteCreatedBefore(context.Background(), cutoff)
	if err != nil || n != 3 {
		t.Fatalf("DeleteCreatedBefore = (%d, %v), want (3, nil)", n, err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
