package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

const enrollmentColumns = "id, student_id, course_id, status, enrolled_at, cancelled_at"

// EnrollmentRepository manages the enrollment ledger in PostgreSQL.
type EnrollmentRepository struct {
	db sqlx.ExtContext
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db sqlx.ExtContext) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// NextID returns the identifier the next enrollment will receive.
func (r *EnrollmentRepository) NextID(ctx context.Context) (string, error) {
	var maxSeq int
	if err := sqlx.GetContext(ctx, r.db, &maxSeq, "SELECT COALESCE(MAX(seq), 0) FROM enrollments"); err != nil {
		return "", fmt.Errorf("next enrollment id: %w", err)
	}
	return enrollmentIDs.next(maxSeq), nil
}

// Save appends a new enrollment or updates the status of an existing one.
func (r *EnrollmentRepository) Save(ctx context.Context, enrollment *models.Enrollment) error {
	seq, err := enrollmentIDs.mustSeq(enrollment.ID)
	if err != nil {
		return err
	}
	query := `INSERT INTO enrollments (id, seq, student_id, course_id, status, enrolled_at, cancelled_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, cancelled_at = EXCLUDED.cancelled_at`
	if _, err := r.db.ExecContext(ctx, query, enrollment.ID, seq, enrollment.StudentID, enrollment.CourseID, enrollment.Status, enrollment.EnrolledAt, enrollment.CancelledAt); err != nil {
		return fmt.Errorf("save enrollment: %w", err)
	}
	return nil
}

// FindByID fetches an enrollment by ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, r.db, &enrollment, "SELECT "+enrollmentColumns+" FROM enrollments WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// List returns enrollments matching the filter in creation order.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE %s ORDER BY seq", enrollmentColumns, strings.Join(conditions, " AND "))

	enrollments := []models.Enrollment{}
	if err := sqlx.SelectContext(ctx, r.db, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
