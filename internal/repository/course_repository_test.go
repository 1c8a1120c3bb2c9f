package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryAppendToRosterUnlimited(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO course_registrations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.AppendToRoster(context.Background(), "crs-1", "stu-1", nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryAppendToRosterCapacityFull(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	// The conditional insert matches zero rows when the roster already
	// holds max_students, so the write is a no-op.
	mock.ExpectExec("INSERT INTO course_registrations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	max := 30
	ok, err := repo.AppendToRoster(context.Background(), "crs-1", "stu-1", &max)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryAppendToRosterDuplicate(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO course_registrations").
		WillReturnError(&pq.Error{Code: "23505"})

	max := 30
	_, err := repo.AppendToRoster(context.Background(), "crs-1", "stu-1", &max)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDuplicate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryRemoveFromRosterMissing(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("DELETE FROM course_registrations").
		WithArgs("crs-1", "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.RemoveFromRoster(context.Background(), "crs-1", "stu-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryBulkSetDeadlineScopedToDepartment(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET registration_deadline").
		WillReturnResult(sqlmock.NewResult(0, 7))

	affected, err := repo.BulkSetDeadline(context.Background(), "2024/2025", "dep-1", mustParseTime(t, "2025-03-01T00:00:00Z"))
	require.NoError(t, err)
	require.EqualValues(t, 7, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
