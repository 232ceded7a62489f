package models

import "time"

// StudentStatusActive is assigned to every newly created student.
const StudentStatusActive = "ACTIVE"

// Student represents a learner registered on the campus.
type Student struct {
	ID        string     `db:"id" json:"studentId"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// StudentAPIKey is generated alongside a student and never exposed by the read API.
type StudentAPIKey struct {
	APIKey    string    `db:"api_key" json:"apiKey"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Status string
	Page   PageRequest
}

// StudentDetail is the read projection of a single student.
type StudentDetail struct {
	Student
	Enrollments []EnrollmentSummary `json:"enrollments"`
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// UpdateStudentRequest is a partial update; nil fields are left untouched.
type UpdateStudentRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Status *string `json:"status"`
}

// Apply merges the non-nil fields into s.
func (r UpdateStudentRequest) Apply(s *Student) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Status != nil {
		s.Status = *r.Status
	}
}

// StudentCreated is returned by POST /students.
type StudentCreated struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
}

// StudentUpdated is returned by PUT /students/:id.
type StudentUpdated struct {
	StudentID string `json:"studentId"`
	Updated   bool   `json:"updated"`
}

// StudentDeleted is returned by DELETE /students/:id.
type StudentDeleted struct {
	StudentID string `json:"studentId"`
	Deleted   bool   `json:"deleted"`
}
