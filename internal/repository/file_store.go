package repository

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/storage"
)

const (
	studentsDir     = "students"
	coursesDir      = "courses"
	enrollmentsFile = "enrollments.json"
	dataFile        = "data.json"
	apiKeyFile      = "apikey.json"
)

// FileStore keeps one JSON document per student and course plus a shared
// enrollments ledger on the local filesystem. A single RWMutex serialises
// writers; readers share the lock.
type FileStore struct {
	mu sync.RWMutex
	fs *storage.LocalStorage
	tx fileTx
}

// NewFileStore prepares the directory layout under fs.
func NewFileStore(fs *storage.LocalStorage) (*FileStore, error) {
	for _, dir := range []string{studentsDir, coursesDir} {
		if err := fs.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	if err := fs.EnsureJSON(enrollmentsFile, []models.Enrollment{}); err != nil {
		return nil, err
	}
	return &FileStore{
		fs: fs,
		tx: fileTx{
			students: &fileStudentStore{units: entityUnits[models.Student]{fs: fs, dir: studentsDir, ids: studentIDs}},
			courses:  &fileCourseStore{units: entityUnits[models.Course]{fs: fs, dir: coursesDir, ids: courseIDs}},
			ledger:   &fileLedger{fs: fs},
		},
	}, nil
}

// View runs fn under the shared lock.
func (s *FileStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.tx)
}

// Update runs fn under the exclusive lock.
func (s *FileStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tx)
}

// Ping verifies the ledger is readable.
func (s *FileStore) Ping(ctx context.Context) error {
	return s.View(ctx, func(tx Tx) error {
		var entries []models.Enrollment
		return s.fs.ReadJSON(enrollmentsFile, &entries)
	})
}

// Close is a no-op for the file driver.
func (s *FileStore) Close() error { return nil }

type fileTx struct {
	students *fileStudentStore
	courses  *fileCourseStore
	ledger   *fileLedger
}

func (t fileTx) Students() StudentStore         { return t.students }
func (t fileTx) Courses() CourseStore           { return t.courses }
func (t fileTx) Enrollments() EnrollmentLedger { return t.ledger }

// entityUnits maps ids like S1001 onto directories like students/s_1001.
type entityUnits[T any] struct {
	fs  *storage.LocalStorage
	dir string
	ids idScheme
}

func (u entityUnits[T]) unitPrefix() string {
	return strings.ToLower(u.ids.prefix) + "_"
}

func (u entityUnits[T]) unit(id string) (string, bool) {
	seq, ok := u.ids.seq(id)
	if !ok {
		return "", false
	}
	return path.Join(u.dir, u.unitPrefix()+strconv.Itoa(seq)), true
}

// seqs lists the numeric ids of every persisted unit in ascending order.
func (u entityUnits[T]) seqs() ([]int, error) {
	names, err := u.fs.ListDirs(u.dir, u.unitPrefix())
	if err != nil {
		return nil, err
	}
	seqs := make([]int, 0, len(names))
	for _, name := range names {
		n, err := strconv.Atoi(strings.TrimPrefix(name, u.unitPrefix()))
		if err != nil {
			continue
		}
		seqs = append(seqs, n)
	}
	sort.Ints(seqs)
	return seqs, nil
}

func (u entityUnits[T]) nextID() (string, error) {
	seqs, err := u.seqs()
	if err != nil {
		return "", err
	}
	maxSeq := 0
	if len(seqs) > 0 {
		maxSeq = seqs[len(seqs)-1]
	}
	return u.ids.next(maxSeq), nil
}

func (u entityUnits[T]) write(id, file string, v interface{}) error {
	unit, ok := u.unit(id)
	if !ok {
		return fmt.Errorf("malformed id %q", id)
	}
	return u.fs.WriteJSON(path.Join(unit, file), v)
}

func (u entityUnits[T]) find(id string) (*T, error) {
	unit, ok := u.unit(id)
	if !ok {
		return nil, ErrNotFound
	}
	var v T
	if err := u.fs.ReadJSON(path.Join(unit, dataFile), &v); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (u entityUnits[T]) list() ([]T, error) {
	seqs, err := u.seqs()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(seqs))
	for _, seq := range seqs {
		item, err := u.find(u.ids.format(seq))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (u entityUnits[T]) remove(id string) (bool, error) {
	unit, ok := u.unit(id)
	if !ok {
		return false, nil
	}
	return u.fs.RemoveAll(unit)
}

type fileStudentStore struct {
	units entityUnits[models.Student]
}

func (s *fileStudentStore) NextID(context.Context) (string, error) {
	return s.units.nextID()
}

func (s *fileStudentStore) Save(_ context.Context, student *models.Student) error {
	return s.units.write(student.ID, dataFile, student)
}

func (s *fileStudentStore) SaveAPIKey(_ context.Context, studentID string, key models.StudentAPIKey) error {
	return s.units.write(studentID, apiKeyFile, key)
}

func (s *fileStudentStore) FindByID(_ context.Context, id string) (*models.Student, error) {
	return s.units.find(id)
}

func (s *fileStudentStore) List(context.Context) ([]models.Student, error) {
	return s.units.list()
}

func (s *fileStudentStore) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	students, err := s.units.list()
	if err != nil {
		return false, err
	}
	for _, student := range students {
		if student.Email == email && student.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fileStudentStore) Delete(_ context.Context, id string) (bool, error) {
	return s.units.remove(id)
}

type fileCourseStore struct {
	units entityUnits[models.Course]
}

func (s *fileCourseStore) NextID(context.Context) (string, error) {
	return s.units.nextID()
}

func (s *fileCourseStore) Save(_ context.Context, course *models.Course) error {
	return s.units.write(course.ID, dataFile, course)
}

func (s *fileCourseStore) FindByID(_ context.Context, id string) (*models.Course, error) {
	return s.units.find(id)
}

func (s *fileCourseStore) List(context.Context) ([]models.Course, error) {
	return s.units.list()
}

func (s *fileCourseStore) Delete(_ context.Context, id string) (bool, error) {
	return s.units.remove(id)
}

// fileLedger stores every enrollment in one JSON array, in creation order.
type fileLedger struct {
	fs *storage.LocalStorage
}

func (l *fileLedger) load() ([]models.Enrollment, error) {
	var entries []models.Enrollment
	if err := l.fs.ReadJSON(enrollmentsFile, &entries); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return []models.Enrollment{}, nil
		}
		return nil, err
	}
	return entries, nil
}

func (l *fileLedger) NextID(context.Context) (string, error) {
	entries, err := l.load()
	if err != nil {
		return "", err
	}
	maxSeq := 0
	for _, e := range entries {
		if n, ok := enrollmentIDs.seq(e.ID); ok && n > maxSeq {
			maxSeq = n
		}
	}
	return enrollmentIDs.next(maxSeq), nil
}

func (l *fileLedger) Save(_ context.Context, enrollment *models.Enrollment) error {
	entries, err := l.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range entries {
		if entries[i].ID == enrollment.ID {
			entries[i] = *enrollment
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, *enrollment)
	}
	return l.fs.WriteJSON(enrollmentsFile, entries)
}

func (l *fileLedger) FindByID(_ context.Context, id string) (*models.Enrollment, error) {
	entries, err := l.load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, ErrNotFound
}

func (l *fileLedger) List(_ context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	entries, err := l.load()
	if err != nil {
		return nil, err
	}
	matched := make([]models.Enrollment, 0, len(entries))
	for _, e := range entries {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
