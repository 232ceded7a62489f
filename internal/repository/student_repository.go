package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-api/internal/models"
)

const uniqueViolation = "23505"

const studentColumns = "id, name, email, status, created_at, updated_at"

// StudentRepository manages persistence for student records in PostgreSQL.
type StudentRepository struct {
	db sqlx.ExtContext
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db sqlx.ExtContext) *StudentRepository {
	return &StudentRepository{db: db}
}

// NextID returns the identifier the next created student will receive.
func (r *StudentRepository) NextID(ctx context.Context) (string, error) {
	var maxSeq int
	if err := sqlx.GetContext(ctx, r.db, &maxSeq, "SELECT COALESCE(MAX(seq), 0) FROM students"); err != nil {
		return "", fmt.Errorf("next student id: %w", err)
	}
	return studentIDs.next(maxSeq), nil
}

// Save inserts or updates a student.
func (r *StudentRepository) Save(ctx context.Context, student *models.Student) error {
	seq, err := studentIDs.mustSeq(student.ID)
	if err != nil {
		return err
	}
	query := `INSERT INTO students (id, seq, name, email, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, student.ID, seq, student.Name, student.Email, student.Status, student.CreatedAt, student.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

// SaveAPIKey stores the API key generated for a student.
func (r *StudentRepository) SaveAPIKey(ctx context.Context, studentID string, key models.StudentAPIKey) error {
	query := `INSERT INTO student_api_keys (student_id, api_key, created_at) VALUES ($1, $2, $3)
        ON CONFLICT (student_id) DO UPDATE SET api_key = EXCLUDED.api_key, created_at = EXCLUDED.created_at`
	if _, err := r.db.ExecContext(ctx, query, studentID, key.APIKey, key.CreatedAt); err != nil {
		return fmt.Errorf("save student api key: %w", err)
	}
	return nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := sqlx.GetContext(ctx, r.db, &student, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// List returns every student ordered by id sequence.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	students := []models.Student{}
	if err := sqlx.SelectContext(ctx, r.db, &students, "SELECT "+studentColumns+" FROM students ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// EmailExists checks if another student already uses email.
func (r *StudentRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM students WHERE email = $1 AND id <> $2)"
	if err := sqlx.GetContext(ctx, r.db, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Delete removes a student and reports whether a row existed.
func (r *StudentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return n > 0, nil
}
