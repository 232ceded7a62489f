package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

const courseColumns = "id, title, capacity, enrolled_count, status, created_at, updated_at"

// CourseRepository manages persistence for courses in PostgreSQL.
type CourseRepository struct {
	db sqlx.ExtContext
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db sqlx.ExtContext) *CourseRepository {
	return &CourseRepository{db: db}
}

// NextID returns the identifier the next created course will receive.
func (r *CourseRepository) NextID(ctx context.Context) (string, error) {
	var maxSeq int
	if err := sqlx.GetContext(ctx, r.db, &maxSeq, "SELECT COALESCE(MAX(seq), 0) FROM courses"); err != nil {
		return "", fmt.Errorf("next course id: %w", err)
	}
	return courseIDs.next(maxSeq), nil
}

// Save inserts or updates a course.
func (r *CourseRepository) Save(ctx context.Context, course *models.Course) error {
	seq, err := courseIDs.mustSeq(course.ID)
	if err != nil {
		return err
	}
	query := `INSERT INTO courses (id, seq, title, capacity, enrolled_count, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, capacity = EXCLUDED.capacity, enrolled_count = EXCLUDED.enrolled_count, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, course.ID, seq, course.Title, course.Capacity, course.EnrolledCount, course.Status, course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	return nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := sqlx.GetContext(ctx, r.db, &course, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// List returns every course ordered by id sequence.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	if err := sqlx.SelectContext(ctx, r.db, &courses, "SELECT "+courseColumns+" FROM courses ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Delete removes a course and reports whether a row existed.
func (r *CourseRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	return n > 0, nil
}
