package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// writerLockKey is the advisory lock taken by every write unit of work.
const writerLockKey int64 = 0x63616d707573

// PostgresStore runs units of work against PostgreSQL. Writers are
// serialised across processes with a transaction-scoped advisory lock.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// View runs fn against the pool without a transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return fn(newPgTx(s.db))
}

// Update runs fn inside a transaction holding the writer lock.
func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", writerLockKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("acquire writer lock: %w", err)
	}
	if err := fn(newPgTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type pgTx struct {
	students    *StudentRepository
	courses     *CourseRepository
	enrollments *EnrollmentRepository
}

func newPgTx(db sqlx.ExtContext) pgTx {
	return pgTx{
		students:    NewStudentRepository(db),
		courses:     NewCourseRepository(db),
		enrollments: NewEnrollmentRepository(db),
	}
}

func (t pgTx) Students() StudentStore         { return t.students }
func (t pgTx) Courses() CourseStore           { return t.courses }
func (t pgTx) Enrollments() EnrollmentLedger { return t.enrollments }
