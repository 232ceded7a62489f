package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// Enrollment error messages returned to clients.
const (
	msgEnrollmentRequired  = "studentId and courseId are required"
	msgCourseNotOpen       = "Course is not open for enrollment"
	msgCourseFull          = "Course is at full capacity"
	msgAlreadyEnrolled     = "Student is already enrolled in this course"
	msgEnrollmentNotFound  = "Enrollment not found"
	msgEnrollmentCancelled = "Enrollment is already cancelled"
)

// EnrollmentService owns the enrollment ledger. It is the only writer of
// Course.EnrolledCount.
type EnrollmentService struct {
	store     repository.Store
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(store repository.Store, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		store:     store,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Enroll confirms a seat for a student. Checks run in order and the first
// failure wins: student exists, course exists, course is OPEN, a seat is
// left, no confirmed enrollment for the pair.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.EnrollRequest) (*models.EnrollmentCreated, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindBadRequest, appErrors.ErrBadRequest.Status, msgEnrollmentRequired)
	}
	defer s.metrics.ObserveStoreOperation("enrollment.enroll", time.Now())

	var enrollment *models.Enrollment
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		student, err := tx.Students().FindByID(ctx, req.StudentID)
		if err != nil {
			return findError(err, msgStudentNotFound, "failed to load student")
		}
		course, err := tx.Courses().FindByID(ctx, req.CourseID)
		if err != nil {
			return findError(err, msgCourseNotFound, "failed to load course")
		}
		if course.Status != models.CourseStatusOpen {
			return appErrors.BadRequest(msgCourseNotOpen)
		}
		if course.IsFull() {
			return appErrors.BadRequest(msgCourseFull)
		}
		ledger := tx.Enrollments()
		existing, err := ledger.List(ctx, models.EnrollmentFilter{
			StudentID: student.ID,
			CourseID:  course.ID,
			Status:    models.EnrollmentStatusConfirmed,
		})
		if err != nil {
			return appErrors.Internal(err, "failed to check existing enrollment")
		}
		if len(existing) > 0 {
			return appErrors.BadRequest(msgAlreadyEnrolled)
		}

		id, err := ledger.NextID(ctx)
		if err != nil {
			return appErrors.Internal(err, "failed to allocate enrollment id")
		}
		enrollment = &models.Enrollment{
			ID:         id,
			StudentID:  student.ID,
			CourseID:   course.ID,
			Status:     models.EnrollmentStatusConfirmed,
			EnrolledAt: s.now(),
		}
		course.EnrolledCount++
		if err := ledger.Save(ctx, enrollment); err != nil {
			return appErrors.Internal(err, "failed to save enrollment")
		}
		if err := tx.Courses().Save(ctx, course); err != nil {
			return appErrors.Internal(err, "failed to update course enrolled count")
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordEnrollment("rejected")
		return nil, err
	}
	s.metrics.RecordEnrollment("confirmed")
	s.logger.Info("enrollment confirmed",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("course_id", enrollment.CourseID),
	)
	return &models.EnrollmentCreated{EnrollmentID: enrollment.ID, Status: enrollment.Status}, nil
}

// Cancel releases the seat held by an enrollment. The course counter is
// floored at zero and a course deleted in the meantime is tolerated.
func (s *EnrollmentService) Cancel(ctx context.Context, id string) (*models.EnrollmentCancelled, error) {
	defer s.metrics.ObserveStoreOperation("enrollment.cancel", time.Now())
	var enrollment *models.Enrollment
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		var err error
		enrollment, err = tx.Enrollments().FindByID(ctx, id)
		if err != nil {
			return findError(err, msgEnrollmentNotFound, "failed to load enrollment")
		}
		if !enrollment.IsConfirmed() {
			return appErrors.BadRequest(msgEnrollmentCancelled)
		}
		now := s.now()
		enrollment.Status = models.EnrollmentStatusCancelled
		enrollment.CancelledAt = &now

		course, err := tx.Courses().FindByID(ctx, enrollment.CourseID)
		switch {
		case err == nil:
			if course.EnrolledCount > 0 {
				course.EnrolledCount--
			}
			if err := tx.Courses().Save(ctx, course); err != nil {
				return appErrors.Internal(err, "failed to update course enrolled count")
			}
		case isNotFound(err):
			s.logger.Warn("cancelling enrollment of deleted course", zap.String("enrollment_id", id), zap.String("course_id", enrollment.CourseID))
		default:
			return appErrors.Internal(err, "failed to load course")
		}
		if err := tx.Enrollments().Save(ctx, enrollment); err != nil {
			return appErrors.Internal(err, "failed to save enrollment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEnrollment("cancelled")
	s.logger.Info("enrollment cancelled", zap.String("enrollment_id", id))
	return &models.EnrollmentCancelled{Status: enrollment.Status}, nil
}

// List returns every enrollment matching the filter. Status is compared upper-cased.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) (*models.EnrollmentList, error) {
	filter.Status = models.EnrollmentStatus(strings.ToUpper(string(filter.Status)))
	var items []models.Enrollment
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		items, err = tx.Enrollments().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return &models.EnrollmentList{Total: len(items), Data: items}, nil
}

// Get returns a single enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		enrollment, err = tx.Enrollments().FindByID(ctx, id)
		if err != nil {
			return findError(err, msgEnrollmentNotFound, "failed to load enrollment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// ForStudent returns every enrollment of a student regardless of status.
func (s *EnrollmentService) ForStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	list, err := s.List(ctx, models.EnrollmentFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

// ForCourseConfirmed returns the confirmed enrollments of a course.
func (s *EnrollmentService) ForCourseConfirmed(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	list, err := s.List(ctx, models.EnrollmentFilter{CourseID: courseID, Status: models.EnrollmentStatusConfirmed})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}
