package models

import "time"

// CourseStatusOpen is the only status that accepts enrollments.
const CourseStatusOpen = "OPEN"

// Course is an offering students can enroll into. EnrolledCount mirrors the
// number of CONFIRMED enrollments and is written only by the enrollment ledger.
type Course struct {
	ID            string     `db:"id" json:"courseId"`
	Title         string     `db:"title" json:"title"`
	Capacity      int        `db:"capacity" json:"capacity"`
	EnrolledCount int        `db:"enrolled_count" json:"enrolledCount"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// AvailableSeats is capacity minus confirmed enrollments.
func (c Course) AvailableSeats() int {
	return c.Capacity - c.EnrolledCount
}

// IsFull reports whether no seat is left.
func (c Course) IsFull() bool {
	return c.EnrolledCount >= c.Capacity
}

// CourseFilter encapsulates allowed search parameters for listing courses.
type CourseFilter struct {
	Status string
	Page   PageRequest
}

// CourseSummary is the list projection of a course.
type CourseSummary struct {
	CourseID       string `json:"courseId"`
	Title          string `json:"title"`
	Capacity       int    `json:"capacity"`
	EnrolledCount  int    `json:"enrolledCount"`
	AvailableSeats int    `json:"availableSeats"`
	Status         string `json:"status"`
}

// CourseDetail is the read projection of a single course.
type CourseDetail struct {
	CourseSummary
	CreatedDate time.Time `json:"created_date"`
}

// NewCourseSummary projects a course for list responses.
func NewCourseSummary(c Course) CourseSummary {
	return CourseSummary{
		CourseID:       c.ID,
		Title:          c.Title,
		Capacity:       c.Capacity,
		EnrolledCount:  c.EnrolledCount,
		AvailableSeats: c.AvailableSeats(),
		Status:         c.Status,
	}
}

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	Title    string `json:"title" validate:"required"`
	Capacity *int   `json:"capacity" validate:"required"`
}

// UpdateCourseRequest is a partial update; nil fields are left untouched.
type UpdateCourseRequest struct {
	Title    *string `json:"title"`
	Capacity *int    `json:"capacity"`
	Status   *string `json:"status"`
}

// Apply merges the non-nil fields into c.
func (r UpdateCourseRequest) Apply(c *Course) {
	if r.Title != nil {
		c.Title = *r.Title
	}
	if r.Capacity != nil {
		c.Capacity = *r.Capacity
	}
	if r.Status != nil {
		c.Status = *r.Status
	}
}

// CourseCreated is returned by POST /courses.
type CourseCreated struct {
	CourseID      string `json:"courseId"`
	Status        string `json:"status"`
	EnrolledCount int    `json:"enrolledCount"`
}

// CourseUpdated is returned by PUT /courses/:id.
type CourseUpdated struct {
	CourseID string `json:"courseId"`
	Updated  bool   `json:"updated"`
}

// CourseDeleted is returned by DELETE /courses/:id.
type CourseDeleted struct {
	CourseID string `json:"courseId"`
	Deleted  bool   `json:"deleted"`
}

// RosterEntry joins a confirmed enrollment with its student.
type RosterEntry struct {
	EnrollmentID string
	StudentID    string
	Name         string
	Email        string
	EnrolledAt   time.Time
}

// CourseRoster lists the confirmed participants of a course.
type CourseRoster struct {
	Course  Course
	Entries []RosterEntry
}
