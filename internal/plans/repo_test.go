//go:build integration_test || all_tests

package plans

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/db"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
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

func TestRepo_Add_Get_Delete(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	userID := gofakeit.Number(100000, 900000)
	added, err := repo.Add(ctx, Plan{
		UserID:        userID,
		Name:          "Push Day",
		Description:   gofakeit.Sentence(4),
		ImportBatchID: uuid.NewString(),
		Exercises: []PlanExercise{
			{Name: "Bench Press", MuscleGroup: "chest", Sets: 4, Reps: 8},
			{Name: "Overhead Press", MuscleGroup: "shoulders", Sets: 3, Reps: 10},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.True(t, added.ID > 0)
	require.Len(t, added.Exercises, 2)
	assert.True(t, added.Exercises[0].ID > 0)

	gotten, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day", gotten.Name)
	require.Len(t, gotten.Exercises, 2)
	assert.Equal(t, "Bench Press", gotten.Exercises[0].Name)
	assert.Equal(t, 0, gotten.Exercises[0].Position)
	assert.Equal(t, 1, gotten.Exercises[1].Position)

	exists, err := repo.PlanExists(ctx, added.ID, userID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.PlanExists(ctx, added.ID, userID+1)
	require.NoError(t, err)
	assert.False(t, exists)

	userPlans, err := repo.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, userPlans, 1)

	require.NoError(t, repo.Delete(ctx, added.ID, userID))
	_, err = repo.Get(ctx, added.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, added.ID, userID), ErrPlanNotFound)
}
