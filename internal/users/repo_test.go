//go:build integration_test || all_tests

package users

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

	username := gofakeit.Username() + gofakeit.DigitN(6)
	added, err := repo.Add(ctx, User{
		Username:     username,
		PasswordHash: gofakeit.UUID(),
	})
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.True(t, added.ID > 0)
	assert.False(t, added.CreatedAt.IsZero())

	gotten, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, username, gotten.Username)

	byUsername, err := repo.GetByUsername(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, added.ID, byUsername.ID)

	_, err = repo.Get(ctx, -1)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByUsername(ctx, "no-such-user-"+gofakeit.UUID())
	assert.ErrorIs(t, err, ErrUserNotFound)

	// username has a unique constraint
	_, err = repo.Add(ctx, User{
		Username:     username,
		PasswordHash: gofakeit.UUID(),
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}
