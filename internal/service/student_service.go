package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// Student error messages returned to clients.
const (
	msgStudentRequired     = "name and email are required"
	msgEmailExists         = "Email already exists"
	msgEmailEmpty          = "email cannot be empty"
	msgStudentNotFound     = "Student not found"
	msgStudentHasEnrollees = "Cannot delete student with active course enrollments"
)

// StudentService handles student use-cases.
type StudentService struct {
	store     repository.Store
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
	newAPIKey func() string
}

// NewStudentService constructs the student service.
func NewStudentService(store repository.Store, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		store:     store,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
		newAPIKey: generateStudentAPIKey,
	}
}

// generateStudentAPIKey returns STU- followed by 12 upper-case hex characters.
func generateStudentAPIKey() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "STU-" + strings.ToUpper(raw[:12])
}

// Create registers a new student with a generated API key.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.StudentCreated, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindBadRequest, appErrors.ErrBadRequest.Status, msgStudentRequired)
	}
	defer s.metrics.ObserveStoreOperation("student.create", time.Now())

	var created *models.Student
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		students := tx.Students()
		exists, err := students.EmailExists(ctx, req.Email, "")
		if err != nil {
			return appErrors.Internal(err, "failed to check email")
		}
		if exists {
			return appErrors.BadRequest(msgEmailExists)
		}
		id, err := students.NextID(ctx)
		if err != nil {
			return appErrors.Internal(err, "failed to allocate student id")
		}
		now := s.now()
		student := &models.Student{
			ID:        id,
			Name:      req.Name,
			Email:     req.Email,
			Status:    models.StudentStatusActive,
			CreatedAt: now,
		}
		if err := students.Save(ctx, student); err != nil {
			return saveStudentError(err)
		}
		if err := students.SaveAPIKey(ctx, id, models.StudentAPIKey{APIKey: s.newAPIKey(), CreatedAt: now}); err != nil {
			return appErrors.Internal(err, "failed to save student api key")
		}
		created = student
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("student created", zap.String("student_id", created.ID))
	return &models.StudentCreated{StudentID: created.ID, Status: created.Status}, nil
}

// List returns students filtered by status, one page at a time.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) (*models.Page[models.Student], error) {
	var students []models.Student
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		students, err = tx.Students().List(ctx)
		return err
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	if filter.Status != "" {
		status := strings.ToUpper(filter.Status)
		matched := students[:0]
		for _, st := range students {
			if st.Status == status {
				matched = append(matched, st)
			}
		}
		students = matched
	}
	page := models.Paginate(students, filter.Page)
	return &page, nil
}

// Get returns the student together with a summary of every enrollment.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	var detail *models.StudentDetail
	err := s.store.View(ctx, func(tx repository.Tx) error {
		student, err := tx.Students().FindByID(ctx, id)
		if err != nil {
			return findError(err, msgStudentNotFound, "failed to load student")
		}
		enrollments, err := tx.Enrollments().List(ctx, models.EnrollmentFilter{StudentID: id})
		if err != nil {
			return appErrors.Internal(err, "failed to load student enrollments")
		}
		summaries := make([]models.EnrollmentSummary, 0, len(enrollments))
		for _, e := range enrollments {
			summaries = append(summaries, models.EnrollmentSummary{EnrollmentID: e.ID, CourseID: e.CourseID, Status: e.Status})
		}
		detail = &models.StudentDetail{Student: *student, Enrollments: summaries}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Update applies a partial update. Email uniqueness is checked only when the
// email actually changes.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.StudentUpdated, error) {
	if req.Email != nil && *req.Email == "" {
		return nil, appErrors.BadRequest(msgEmailEmpty)
	}
	defer s.metrics.ObserveStoreOperation("student.update", time.Now())
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		students := tx.Students()
		student, err := students.FindByID(ctx, id)
		if err != nil {
			return findError(err, msgStudentNotFound, "failed to load student")
		}
		if req.Email != nil && *req.Email != student.Email {
			exists, err := students.EmailExists(ctx, *req.Email, id)
			if err != nil {
				return appErrors.Internal(err, "failed to check email")
			}
			if exists {
				return appErrors.BadRequest(msgEmailExists)
			}
		}
		req.Apply(student)
		now := s.now()
		student.UpdatedAt = &now
		if err := students.Save(ctx, student); err != nil {
			return saveStudentError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.StudentUpdated{StudentID: id, Updated: true}, nil
}

// Delete removes a student that holds no confirmed enrollment.
func (s *StudentService) Delete(ctx context.Context, id string) (*models.StudentDeleted, error) {
	defer s.metrics.ObserveStoreOperation("student.delete", time.Now())
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.Students().FindByID(ctx, id); err != nil {
			return findError(err, msgStudentNotFound, "failed to load student")
		}
		active, err := tx.Enrollments().List(ctx, models.EnrollmentFilter{StudentID: id, Status: models.EnrollmentStatusConfirmed})
		if err != nil {
			return appErrors.Internal(err, "failed to load student enrollments")
		}
		if len(active) > 0 {
			return appErrors.BadRequest(msgStudentHasEnrollees)
		}
		deleted, err := tx.Students().Delete(ctx, id)
		if err != nil {
			return appErrors.Internal(err, "failed to delete student")
		}
		if !deleted {
			return appErrors.NotFound(msgStudentNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return &models.StudentDeleted{StudentID: id, Deleted: true}, nil
}

func saveStudentError(err error) error {
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return appErrors.BadRequest(msgEmailExists)
	}
	return appErrors.Internal(err, "failed to save student")
}

// findError maps a lookup failure to NotFound or Internal.
func findError(err error, notFound, internal string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.NotFound(notFound)
	}
	return appErrors.Internal(err, internal)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
