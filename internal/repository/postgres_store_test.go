package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

func newPostgresMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresStoreUpdateTakesWriterLock(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(writerLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(seq), 0) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(1004))
	mock.ExpectCommit()

	var id string
	err := store.Update(context.Background(), func(tx Tx) error {
		var err error
		id, err = tx.Students().NextID(context.Background())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "S1005", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	store := NewPostgresStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(writerLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.Update(context.Background(), func(Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryNextIDSeeds(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(seq), 0) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))

	id, err := repo.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "S1001", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySaveMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs("S1001", 1001, "Ada", "ada@campus.test", models.StudentStatusActive, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Save(context.Background(), &models.Student{ID: "S1001", Name: "Ada", Email: "ada@campus.test", Status: models.StudentStatusActive, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, status, created_at, updated_at FROM students WHERE id = $1")).
		WithArgs("S1001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "status", "created_at", "updated_at"}).
			AddRow("S1001", "Ada", "ada@campus.test", "ACTIVE", created, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, status, created_at, updated_at FROM students WHERE id = $1")).
		WithArgs("S9999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "status", "created_at", "updated_at"}))

	student, err := repo.FindByID(context.Background(), "S1001")
	require.NoError(t, err)
	assert.Equal(t, "Ada", student.Name)
	assert.Nil(t, student.UpdatedAt)

	_, err = repo.FindByID(context.Background(), "S9999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryEmailExists(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM students WHERE email = $1 AND id <> $2)")).
		WithArgs("ada@campus.test", "S1002").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "ada@campus.test", "S1002")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositorySaveAndDelete(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WithArgs("C2001", 2001, "Databases", 30, 0, models.CourseStatusOpen, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("C2001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("C2001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Save(context.Background(), &models.Course{ID: "C2001", Title: "Databases", Capacity: 30, Status: models.CourseStatusOpen, CreatedAt: time.Now()}))

	deleted, err := repo.Delete(context.Background(), "C2001")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(context.Background(), "C2001")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositorySaveRejectsMalformedID(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	err := repo.Save(context.Background(), &models.Course{ID: "X1"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	enrolled := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, course_id, status, enrolled_at, cancelled_at FROM enrollments WHERE 1=1 AND course_id = $1 AND status = $2 ORDER BY seq")).
		WithArgs("C2001", "CONFIRMED").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "course_id", "status", "enrolled_at", "cancelled_at"}).
			AddRow("E3001", "S1001", "C2001", "CONFIRMED", enrolled, nil))

	items, err := repo.List(context.Background(), models.EnrollmentFilter{CourseID: "C2001", Status: models.EnrollmentStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.EnrollmentStatusConfirmed, items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySaveUpserts(t *testing.T) {
	db, mock, cleanup := newPostgresMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	cancelled := time.Now()
	mock.ExpectExec("(?s)INSERT INTO enrollments .* ON CONFLICT \\(id\\) DO UPDATE SET status").
		WithArgs("E3001", 3001, "S1001", "C2001", "CANCELLED", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &models.Enrollment{ID: "E3001", StudentID: "S1001", CourseID: "C2001", Status: models.EnrollmentStatusCancelled, EnrolledAt: time.Now(), CancelledAt: &cancelled})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
