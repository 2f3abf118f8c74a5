//go:build integration_test || all_tests

package workoutlog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/db"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoSetup(t *testing.T) (*Repo, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postgres host: %s", host)

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         "5432",
		DBName:         "fittracker",
		TracingEnabled: false,
	})
	require.NoError(t, err)

	return NewRepo(dbPool), func() {
		dbPool.Close()
	}
}

func TestRepo_Add_Get(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	userID := gofakeit.Number(100000, 900000)
	added, err := repo.Add(ctx, WorkoutLog{
		UserID:             userID,
		Date:               time.Now(),
		CompletedExercises: 6,
		WaterIntakeMl:      750,
		DurationSeconds:    3600,
		Notes:              gofakeit.Sentence(5),
	})
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.True(t, added.ID > 0)

	gotten, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, gotten.ID)
	assert.Equal(t, userID, gotten.UserID)
	assert.Equal(t, 750, gotten.WaterIntakeMl)
	assert.Equal(t, added.Notes, gotten.Notes)
	assert.Nil(t, gotten.WorkoutID)

	_, err = repo.Get(ctx, -1)
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestRepo_List(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	// random user so reruns against the same database stay isolated
	userID := gofakeit.Number(100000, 900000)
	day := func(d int) time.Time {
		return time.Date(2025, 2, d, 10, 0, 0, 0, time.UTC)
	}
	for _, d := range []int{3, 1, 5} {
		_, err := repo.Add(ctx, WorkoutLog{
			UserID:          userID,
			Date:            day(d),
			WaterIntakeMl:   d * 100,
			DurationSeconds: 600,
		})
		require.NoError(t, err)
	}

	logs, err := repo.List(ctx, ListParams{UserID: userID})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].Date.After(logs[1].Date))
	assert.True(t, logs[1].Date.After(logs[2].Date))

	from := day(1)
	to := day(3)
	logs, err = repo.List(ctx, ListParams{UserID: userID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	count, err := repo.Count(ctx, ListParams{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	logs, err = repo.List(ctx, ListParams{UserID: gofakeit.Number(1000000, 2000000)})
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}

func TestRepo_List_SameDateKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	userID := gofakeit.Number(100000, 900000)
	sameDay := time.Date(2025, 2, 10, 10, 0, 0, 0, time.UTC)
	var ids []int
	for i := 0; i < 4; i++ {
		added, err := repo.Add(ctx, WorkoutLog{
			UserID:        userID,
			Date:          sameDay,
			WaterIntakeMl: (i + 1) * 100,
		})
		require.NoError(t, err)
		ids = append(ids, added.ID)
	}

	// ties on date fall back to id, so repeated calls agree
	for i := 0; i < 3; i++ {
		logs, err := repo.List(ctx, ListParams{UserID: userID})
		require.NoError(t, err)
		require.Len(t, logs, 4)
		for j, l := range logs {
			assert.Equal(t, ids[j], l.ID)
		}
	}
}
