package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/storage"
)

func newFileStore(t *testing.T) (*FileStore, *storage.LocalStorage) {
	t.Helper()
	fs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store, err := NewFileStore(fs)
	require.NoError(t, err)
	return store, fs
}

func TestFileStoreStudentLifecycle(t *testing.T) {
	store, fs := newFileStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	err := store.Update(ctx, func(tx Tx) error {
		id, err := tx.Students().NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "S1001", id)

		student := &models.Student{ID: id, Name: "Ada", Email: "ada@campus.test", Status: models.StudentStatusActive, CreatedAt: now}
		require.NoError(t, tx.Students().Save(ctx, student))
		return tx.Students().SaveAPIKey(ctx, id, models.StudentAPIKey{APIKey: "STU-ABCDEF123456", CreatedAt: now})
	})
	require.NoError(t, err)

	_, err = os.Stat(fs.Path("students/s_1001/data.json"))
	assert.NoError(t, err)
	_, err = os.Stat(fs.Path("students/s_1001/apikey.json"))
	assert.NoError(t, err)

	err = store.View(ctx, func(tx Tx) error {
		got, err := tx.Students().FindByID(ctx, "S1001")
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)
		assert.True(t, got.CreatedAt.Equal(now))

		next, err := tx.Students().NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "S1002", next)

		exists, err := tx.Students().EmailExists(ctx, "ada@campus.test", "")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = tx.Students().EmailExists(ctx, "ada@campus.test", "S1001")
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)

	err = store.Update(ctx, func(tx Tx) error {
		deleted, err := tx.Students().Delete(ctx, "S1001")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = tx.Students().Delete(ctx, "S1001")
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = tx.Students().FindByID(ctx, "S1001")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreRejectsMalformedIDs(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	err := store.View(ctx, func(tx Tx) error {
		for _, id := range []string{"", "1001", "S", "S10a", "../S1001", "C2001"} {
			_, err := tx.Students().FindByID(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, id)
		}
		_, err := tx.Courses().FindByID(ctx, "S1001")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreZeroPaddedIDsDoNotAlias(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	err := store.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.Students().Save(ctx, &models.Student{ID: "S1001", Name: "Ada", Email: "ada@campus.test", Status: models.StudentStatusActive, CreatedAt: now}))
		return tx.Courses().Save(ctx, &models.Course{ID: "C2001", Title: "Databases", Capacity: 2, Status: models.CourseStatusOpen, CreatedAt: now})
	})
	require.NoError(t, err)

	err = store.Update(ctx, func(tx Tx) error {
		for _, id := range []string{"S01001", "S001001", "S+1001"} {
			_, err := tx.Students().FindByID(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, id)
			deleted, err := tx.Students().Delete(ctx, id)
			require.NoError(t, err)
			assert.False(t, deleted, id)
		}
		_, err := tx.Courses().FindByID(ctx, "C02001")
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := tx.Students().FindByID(ctx, "S1001")
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreCourseListOrderedNumerically(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx Tx) error {
		for _, id := range []string{"C2010", "C2002", "C2009"} {
			require.NoError(t, tx.Courses().Save(ctx, &models.Course{ID: id, Title: id, Capacity: 5, Status: models.CourseStatusOpen}))
		}
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx Tx) error {
		courses, err := tx.Courses().List(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(courses))
		for _, c := range courses {
			ids = append(ids, c.ID)
		}
		assert.Equal(t, []string{"C2002", "C2009", "C2010"}, ids)

		next, err := tx.Courses().NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "C2011", next)
		return nil
	})
	require.NoError(t, err)
}

func TestFileLedgerUpsertAndFilter(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.Update(ctx, func(tx Tx) error {
		ledger := tx.Enrollments()
		id, err := ledger.NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "E3001", id)

		require.NoError(t, ledger.Save(ctx, &models.Enrollment{ID: "E3001", StudentID: "S1001", CourseID: "C2001", Status: models.EnrollmentStatusConfirmed, EnrolledAt: now}))
		require.NoError(t, ledger.Save(ctx, &models.Enrollment{ID: "E3002", StudentID: "S1002", CourseID: "C2001", Status: models.EnrollmentStatusConfirmed, EnrolledAt: now}))

		cancelled := now.Add(time.Minute)
		require.NoError(t, ledger.Save(ctx, &models.Enrollment{ID: "E3001", StudentID: "S1001", CourseID: "C2001", Status: models.EnrollmentStatusCancelled, EnrolledAt: now, CancelledAt: &cancelled}))
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx Tx) error {
		ledger := tx.Enrollments()
		all, err := ledger.List(ctx, models.EnrollmentFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "E3001", all[0].ID)
		assert.Equal(t, models.EnrollmentStatusCancelled, all[0].Status)
		assert.NotNil(t, all[0].CancelledAt)

		confirmed, err := ledger.List(ctx, models.EnrollmentFilter{CourseID: "C2001", Status: models.EnrollmentStatusConfirmed})
		require.NoError(t, err)
		require.Len(t, confirmed, 1)
		assert.Equal(t, "S1002", confirmed[0].StudentID)

		next, err := ledger.NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "E3003", next)

		_, err = ledger.FindByID(ctx, "E9999")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestFileStoreConcurrentCreatesGetDistinctIDs(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Update(ctx, func(tx Tx) error {
				id, err := tx.Students().NextID(ctx)
				if err != nil {
					return err
				}
				ids <- id
				return tx.Students().Save(ctx, &models.Student{ID: id, Name: "s", Email: fmt.Sprintf("s%d@campus.test", i), Status: models.StudentStatusActive})
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	close(ids)

	var got []string
	for id := range ids {
		got = append(got, id)
	}
	sort.Strings(got)
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		want = append(want, fmt.Sprintf("S%d", 1001+i))
	}
	assert.Equal(t, want, got)
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	store, _ := newFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Update(ctx, func(Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.NoError(t, store.Ping(context.Background()))
}
