package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/noah-isme/campus-api/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a student email is already taken.
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store hands out units of work over the entity stores and the enrollment
// ledger. View runs fn with shared access. Update runs fn exclusively: id
// allocation, invariant checks and writes inside one Update never interleave
// with another Update.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Tx exposes the stores bound to one unit of work.
type Tx interface {
	Students() StudentStore
	Courses() CourseStore
	Enrollments() EnrollmentLedger
}

// StudentStore persists students and their API keys.
type StudentStore interface {
	NextID(ctx context.Context) (string, error)
	Save(ctx context.Context, student *models.Student) error
	SaveAPIKey(ctx context.Context, studentID string, key models.StudentAPIKey) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CourseStore persists courses.
type CourseStore interface {
	NextID(ctx context.Context) (string, error)
	Save(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// EnrollmentLedger persists enrollments. Save is an upsert by id.
type EnrollmentLedger interface {
	NextID(ctx context.Context) (string, error)
	Save(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error)
}

// idScheme describes a sequential identifier such as S1001.
type idScheme struct {
	prefix  string
	seed    int
	pattern *regexp.Regexp
}

var (
	studentIDs    = idScheme{prefix: "S", seed: 1001, pattern: regexp.MustCompile(`^S([0-9]+)$`)}
	courseIDs     = idScheme{prefix: "C", seed: 2001, pattern: regexp.MustCompile(`^C([0-9]+)$`)}
	enrollmentIDs = idScheme{prefix: "E", seed: 3001, pattern: regexp.MustCompile(`^E([0-9]+)$`)}
)

func (s idScheme) format(seq int) string {
	return s.prefix + strconv.Itoa(seq)
}

// seq extracts the numeric part of id. Malformed and non-canonical ids
// (S01001 for S1001) report false.
func (s idScheme) seq(id string) (int, bool) {
	m := s.pattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || s.format(n) != id {
		return 0, false
	}
	return n, true
}

// next returns the id following maxSeq, or the seed when nothing exists yet.
func (s idScheme) next(maxSeq int) string {
	if maxSeq < s.seed {
		return s.format(s.seed)
	}
	return s.format(maxSeq + 1)
}

func (s idScheme) mustSeq(id string) (int, error) {
	n, ok := s.seq(id)
	if !ok {
		return 0, fmt.Errorf("malformed id %q", id)
	}
	return n, nil
}
