package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/storage"
)

type campus struct {
	store       repository.Store
	students    *StudentService
	courses     *CourseService
	enrollments *EnrollmentService
}

func newCampus(t *testing.T) *campus {
	t.Helper()
	fs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store, err := repository.NewFileStore(fs)
	require.NoError(t, err)
	metrics := NewMetricsService()
	return &campus{
		store:       store,
		students:    NewStudentService(store, nil, nil, metrics),
		courses:     NewCourseService(store, nil, nil, metrics),
		enrollments: NewEnrollmentService(store, nil, nil, metrics),
	}
}

func (c *campus) student(t *testing.T, name, email string) string {
	t.Helper()
	res, err := c.students.Create(context.Background(), models.CreateStudentRequest{Name: name, Email: email})
	require.NoError(t, err)
	return res.StudentID
}

func (c *campus) course(t *testing.T, title string, capacity int) string {
	t.Helper()
	res, err := c.courses.Create(context.Background(), models.CreateCourseRequest{Title: title, Capacity: intPtr(capacity)})
	require.NoError(t, err)
	return res.CourseID
}

func (c *campus) enroll(t *testing.T, studentID, courseID string) string {
	t.Helper()
	res, err := c.enrollments.Enroll(context.Background(), models.EnrollRequest{StudentID: studentID, CourseID: courseID})
	require.NoError(t, err)
	return res.EnrollmentID
}

// requireAppError asserts err is an *appErrors.Error with status and message.
func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %T", err)
	require.Equal(t, status, appErr.Status)
	require.Equal(t, message, appErr.Message)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
