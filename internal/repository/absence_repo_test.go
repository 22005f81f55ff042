package repository_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
	"absence-assistant/internal/repository"
)

func newTestStores(t *testing.T) *repository.Stores {
	t.Helper()
	db, err := repository.OpenGorm(repository.DriverSQLite, filepath.Join(t.TempDir(), "absences.db"), false)
	require.NoError(t, err)

	stores, err := repository.NewGormStores(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close(context.Background()) })
	return stores
}

func absence(userID, date string, reason models.Reason, at time.Time) models.Absence {
	return models.Absence{
		UserID:    userID,
		Date:      date,
		Reason:    reason,
		Justified: reason.Justified(),
		CreatedAt: at,
	}
}

func mustRange(t *testing.T, start, end string) calendar.DateRange {
	t.Helper()
	r, err := calendar.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestGormAbsenceRepository_UpsertIsIdempotentPerKey(t *testing.T) {
	ctx := context.Background()
	repo := newTestStores(t).Absences
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	// GIVEN: an absence recorded once
	first, err := repo.Upsert(ctx, absence("u1", "2025-03-03", models.ReasonSick, t0))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// WHEN: the same (user, date) is written again with another reason
	second, err := repo.Upsert(ctx, absence("u1", "2025-03-03", models.ReasonUnjustified, t0.Add(time.Hour)))
	require.NoError(t, err)

	// THEN: the row is updated in place
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ReasonUnjustified, second.Reason)
	assert.False(t, second.Justified)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	all, err := repo.Query(ctx, "u1", mustRange(t, "2025-03-01", "2025-03-31"))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGormAbsenceRepository_FindMissingReturnsNil(t *testing.T) {
	repo := newTestStores(t).Absences

	got, err := repo.Find(context.Background(), "u1", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormAbsenceRepository_QueryIsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	repo := newTestStores(t).Absences
	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, a := range []models.Absence{
		absence("u1", "2025-03-07", models.ReasonSick, at),
		absence("u1", "2025-03-03", models.ReasonRemoteNotLogged, at),
		absence("u1", "2025-03-05", models.ReasonUnjustified, at),
		absence("u1", "2025-03-10", models.ReasonSick, at),
		absence("u2", "2025-03-04", models.ReasonSick, at),
	} {
		_, err := repo.Upsert(ctx, a)
		require.NoError(t, err)
	}

	got, err := repo.Query(ctx, "u1", mustRange(t, "2025-03-03", "2025-03-09"))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "2025-03-03", got[0].Date)
	assert.Equal(t, "2025-03-05", got[1].Date)
	assert.Equal(t, "2025-03-07", got[2].Date)
	for _, a := range got {
		assert.Equal(t, "u1", a.UserID)
	}

	found, err := repo.Find(ctx, "u2", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Justified)
}

func TestGormAbsenceRepository_ConcurrentUpsertsLeaveOneRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestStores(t).Absences
	at := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reason := models.ReasonSick
			if i%2 == 1 {
				reason = models.ReasonRemoteNotLogged
			}
			_, err := repo.Upsert(ctx, absence("u1", "2025-03-03", reason, at.Add(time.Duration(i)*time.Second)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.Query(ctx, "u1", mustRange(t, "2025-03-03", "2025-03-03"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGormWeekSubmissionRepository_RecordOnce(t *testing.T) {
	ctx := context.Background()
	repo := newTestStores(t).Submissions
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	missing, err := repo.Get(ctx, "u1", 2025, 10)
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, created, err := repo.Record(ctx, models.WeekSubmission{
		UserID: "u1", Year: 2025, Week: 10, Reference: "ref-1", Absences: 2, SubmittedAt: at,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ref-1", first.Reference)

	second, created, err := repo.Record(ctx, models.WeekSubmission{
		UserID: "u1", Year: 2025, Week: 10, Reference: "ref-2", SubmittedAt: at.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ref-1", second.Reference)

	got, err := repo.Get(ctx, "u1", 2025, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Absences)
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := repository.OpenGorm("postgres", "", false)
	assert.Error(t, err)
}
