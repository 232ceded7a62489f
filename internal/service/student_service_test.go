package service

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

func TestStudentServiceCreate(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()

	res, err := c.students.Create(ctx, models.CreateStudentRequest{Name: "Ada", Email: "ada@campus.test"})
	require.NoError(t, err)
	assert.Equal(t, &models.StudentCreated{StudentID: "S1001", Status: "ACTIVE"}, res)

	detail, err := c.students.Get(ctx, "S1001")
	require.NoError(t, err)
	assert.Equal(t, "Ada", detail.Name)
	assert.Equal(t, models.StudentStatusActive, detail.Status)
	assert.Empty(t, detail.Enrollments)
	assert.NotNil(t, detail.Enrollments)
	assert.Nil(t, detail.UpdatedAt)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()

	_, err := c.students.Create(ctx, models.CreateStudentRequest{Name: "Ada"})
	requireAppError(t, err, http.StatusBadRequest, "name and email are required")

	_, err = c.students.Create(ctx, models.CreateStudentRequest{Email: "ada@campus.test"})
	requireAppError(t, err, http.StatusBadRequest, "name and email are required")
}

func TestStudentServiceDuplicateEmail(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()
	c.student(t, "Ada", "ada@campus.test")

	_, err := c.students.Create(ctx, models.CreateStudentRequest{Name: "Other", Email: "ada@campus.test"})
	requireAppError(t, err, http.StatusBadRequest, "Email already exists")

	page, err := c.students.List(ctx, models.StudentFilter{Page: models.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestStudentServiceGeneratesAPIKey(t *testing.T) {
	c := newCampus(t)
	var keys []string
	c.students.newAPIKey = func() string {
		k := generateStudentAPIKey()
		keys = append(keys, k)
		return k
	}
	c.student(t, "Ada", "ada@campus.test")

	require.Len(t, keys, 1)
	assert.Regexp(t, regexp.MustCompile(`^STU-[0-9A-F]{12}$`), keys[0])
}

func TestStudentServiceUpdate(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()
	ada := c.student(t, "Ada", "ada@campus.test")
	c.student(t, "Bob", "bob@campus.test")

	updatedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.students.now = func() time.Time { return updatedAt }

	_, err := c.students.Update(ctx, ada, models.UpdateStudentRequest{Email: strPtr("bob@campus.test")})
	requireAppError(t, err, http.StatusBadRequest, "Email already exists")

	res, err := c.students.Update(ctx, ada, models.UpdateStudentRequest{Email: strPtr("ada@campus.test"), Status: strPtr("SUSPENDED")})
	require.NoError(t, err)
	assert.Equal(t, &models.StudentUpdated{StudentID: ada, Updated: true}, res)

	detail, err := c.students.Get(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, "Ada", detail.Name)
	assert.Equal(t, "SUSPENDED", detail.Status)
	require.NotNil(t, detail.UpdatedAt)
	assert.True(t, detail.UpdatedAt.Equal(updatedAt))

	_, err = c.students.Update(ctx, "S9999", models.UpdateStudentRequest{Name: strPtr("x")})
	requireAppError(t, err, http.StatusNotFound, "Student not found")
}

func TestStudentServiceUpdateRejectsEmptyEmail(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()
	ada := c.student(t, "Ada", "ada@campus.test")
	bob := c.student(t, "Bob", "bob@campus.test")

	for _, id := range []string{ada, bob} {
		_, err := c.students.Update(ctx, id, models.UpdateStudentRequest{Email: strPtr("")})
		requireAppError(t, err, http.StatusBadRequest, "email cannot be empty")
	}

	detail, err := c.students.Get(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, "ada@campus.test", detail.Email)
	detail, err = c.students.Get(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bob@campus.test", detail.Email)
}

func TestStudentServiceListFiltersAndPaginates(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		c.student(t, fmt.Sprintf("Student %d", i), fmt.Sprintf("s%d@campus.test", i))
	}
	_, err := c.students.Update(ctx, "S1002", models.UpdateStudentRequest{Status: strPtr("INACTIVE")})
	require.NoError(t, err)

	page, err := c.students.List(ctx, models.StudentFilter{Status: "active", Page: models.PageRequest{Page: 2, Limit: 3}})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Limit)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "S1005", page.Data[0].ID)
}

func TestStudentServiceDeleteGuard(t *testing.T) {
	c := newCampus(t)
	ctx := context.Background()
	student := c.student(t, "Ada", "ada@campus.test")
	course := c.course(t, "Databases", 2)
	enrollment := c.enroll(t, student, course)

	_, err := c.students.Delete(ctx, student)
	requireAppError(t, err, http.StatusBadRequest, "Cannot delete student with active course enrollments")

	_, err = c.enrollments.Cancel(ctx, enrollment)
	require.NoError(t, err)

	res, err := c.students.Delete(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, &models.StudentDeleted{StudentID: student, Deleted: true}, res)

	_, err = c.students.Get(ctx, student)
	requireAppError(t, err, http.StatusNotFound, "Student not found")
	_, err = c.students.Delete(ctx, student)
	requireAppError(t, err, http.StatusNotFound, "Student not found")
}

func TestStudentServiceConcurrentCreates(t *testing.T) {
	c := newCampus(t)
	const n = 25

	var wg sync.WaitGroup
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.students.Create(context.Background(), models.CreateStudentRequest{
				Name:  fmt.Sprintf("Student %d", i),
				Email: fmt.Sprintf("student%d@campus.test", i),
			})
			if assert.NoError(t, err) {
				results <- res.StudentID
			}
		}(i)
	}
	wg.Wait()
	close(results)

	var ids []string
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	require.Len(t, ids, n)
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("S%d", 1001+i), id)
	}
}
