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

// Course error messages returned to clients.
const (
	msgCourseRequired      = "title and capacity are required"
	msgCapacityPositive    = "capacity must be a positive number"
	msgCapacityBelowCount  = "Capacity cannot be less than current enrolled count"
	msgCourseNotFound      = "Course not found"
	msgCourseHasEnrollment = "Cannot delete course with enrolled students"
)

// CourseService handles course use-cases.
type CourseService struct {
	store     repository.Store
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(store repository.Store, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		store:     store,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a new course with no enrollments.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest) (*models.CourseCreated, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindBadRequest, appErrors.ErrBadRequest.Status, msgCourseRequired)
	}
	if *req.Capacity < 1 {
		return nil, appErrors.BadRequest(msgCapacityPositive)
	}
	defer s.metrics.ObserveStoreOperation("course.create", time.Now())

	var created *models.Course
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		id, err := tx.Courses().NextID(ctx)
		if err != nil {
			return appErrors.Internal(err, "failed to allocate course id")
		}
		course := &models.Course{
			ID:        id,
			Title:     req.Title,
			Capacity:  *req.Capacity,
			Status:    models.CourseStatusOpen,
			CreatedAt: s.now(),
		}
		if err := tx.Courses().Save(ctx, course); err != nil {
			return appErrors.Internal(err, "failed to save course")
		}
		created = course
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("course created", zap.String("course_id", created.ID), zap.Int("capacity", created.Capacity))
	return &models.CourseCreated{CourseID: created.ID, Status: created.Status, EnrolledCount: created.EnrolledCount}, nil
}

// List returns course summaries filtered by status, one page at a time.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) (*models.Page[models.CourseSummary], error) {
	var courses []models.Course
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		courses, err = tx.Courses().List(ctx)
		return err
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	status := strings.ToUpper(filter.Status)
	summaries := make([]models.CourseSummary, 0, len(courses))
	for _, c := range courses {
		if status != "" && c.Status != status {
			continue
		}
		summaries = append(summaries, models.NewCourseSummary(c))
	}
	page := models.Paginate(summaries, filter.Page)
	return &page, nil
}

// Get returns the read projection of a course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	var course *models.Course
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		course, err = tx.Courses().FindByID(ctx, id)
		if err != nil {
			return findError(err, msgCourseNotFound, "failed to load course")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{CourseSummary: models.NewCourseSummary(*course), CreatedDate: course.CreatedAt}, nil
}

// Update applies a partial update. Capacity may never drop below the number
// of confirmed enrollments.
func (s *CourseService) Update(ctx context.Context, id string, req models.UpdateCourseRequest) (*models.CourseUpdated, error) {
	defer s.metrics.ObserveStoreOperation("course.update", time.Now())
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		course, err := tx.Courses().FindByID(ctx, id)
		if err != nil {
			return findError(err, msgCourseNotFound, "failed to load course")
		}
		if req.Capacity != nil {
			if *req.Capacity < 1 {
				return appErrors.BadRequest(msgCapacityPositive)
			}
			if *req.Capacity < course.EnrolledCount {
				return appErrors.BadRequest(msgCapacityBelowCount)
			}
		}
		req.Apply(course)
		now := s.now()
		course.UpdatedAt = &now
		if err := tx.Courses().Save(ctx, course); err != nil {
			return appErrors.Internal(err, "failed to save course")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.CourseUpdated{CourseID: id, Updated: true}, nil
}

// Delete removes a course without confirmed enrollments. Cancelled
// enrollments stay in the ledger and keep referencing the removed id.
func (s *CourseService) Delete(ctx context.Context, id string) (*models.CourseDeleted, error) {
	defer s.metrics.ObserveStoreOperation("course.delete", time.Now())
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.Courses().FindByID(ctx, id); err != nil {
			return findError(err, msgCourseNotFound, "failed to load course")
		}
		confirmed, err := tx.Enrollments().List(ctx, models.EnrollmentFilter{CourseID: id, Status: models.EnrollmentStatusConfirmed})
		if err != nil {
			return appErrors.Internal(err, "failed to load course enrollments")
		}
		if len(confirmed) > 0 {
			return appErrors.BadRequest(msgCourseHasEnrollment)
		}
		deleted, err := tx.Courses().Delete(ctx, id)
		if err != nil {
			return appErrors.Internal(err, "failed to delete course")
		}
		if !deleted {
			return appErrors.NotFound(msgCourseNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return &models.CourseDeleted{CourseID: id, Deleted: true}, nil
}

// Roster lists confirmed participants of a course with their contact data.
// Students removed since enrolling are listed with empty name and email.
func (s *CourseService) Roster(ctx context.Context, id string) (*models.CourseRoster, error) {
	var roster *models.CourseRoster
	err := s.store.View(ctx, func(tx repository.Tx) error {
		course, err := tx.Courses().FindByID(ctx, id)
		if err != nil {
			return findError(err, msgCourseNotFound, "failed to load course")
		}
		confirmed, err := tx.Enrollments().List(ctx, models.EnrollmentFilter{CourseID: id, Status: models.EnrollmentStatusConfirmed})
		if err != nil {
			return appErrors.Internal(err, "failed to load course enrollments")
		}
		entries := make([]models.RosterEntry, 0, len(confirmed))
		for _, e := range confirmed {
			entry := models.RosterEntry{EnrollmentID: e.ID, StudentID: e.StudentID, EnrolledAt: e.EnrolledAt}
			student, err := tx.Students().FindByID(ctx, e.StudentID)
			switch {
			case err == nil:
				entry.Name = student.Name
				entry.Email = student.Email
			case !isNotFound(err):
				return appErrors.Internal(err, "failed to load roster student")
			}
			entries = append(entries, entry)
		}
		roster = &models.CourseRoster{Course: *course, Entries: entries}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}
