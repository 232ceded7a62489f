package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
// CONFIRMED -> CANCELLED is the only transition.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusConfirmed EnrollmentStatus = "CONFIRMED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment captures a student's seat in a course.
type Enrollment struct {
	ID          string           `db:"id" json:"enrollmentId"`
	StudentID   string           `db:"student_id" json:"studentId"`
	CourseID    string           `db:"course_id" json:"courseId"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt  time.Time        `db:"enrolled_at" json:"enrolledAt"`
	CancelledAt *time.Time       `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// IsConfirmed reports whether the enrollment still holds a seat.
func (e Enrollment) IsConfirmed() bool {
	return e.Status == EnrollmentStatusConfirmed
}

// EnrollmentSummary is embedded in student detail responses.
type EnrollmentSummary struct {
	EnrollmentID string           `json:"enrollmentId"`
	CourseID     string           `json:"courseId"`
	Status       EnrollmentStatus `json:"status"`
}

// EnrollmentFilter provides equality filters for listing enrollments.
// Empty fields match everything.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Status    EnrollmentStatus
}

// Matches reports whether e satisfies every set filter.
func (f EnrollmentFilter) Matches(e Enrollment) bool {
	if f.StudentID != "" && e.StudentID != f.StudentID {
		return false
	}
	if f.CourseID != "" && e.CourseID != f.CourseID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}

// EnrollRequest describes enrollment creation request.
type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// EnrollmentCreated is returned by POST /enrollments.
type EnrollmentCreated struct {
	EnrollmentID string           `json:"enrollmentId"`
	Status       EnrollmentStatus `json:"status"`
}

// EnrollmentCancelled is returned by PUT /enrollments/:id/cancel.
type EnrollmentCancelled struct {
	Status EnrollmentStatus `json:"status"`
}

// EnrollmentList is returned by GET /enrollments.
type EnrollmentList struct {
	Total int          `json:"total"`
	Data  []Enrollment `json:"data"`
}
