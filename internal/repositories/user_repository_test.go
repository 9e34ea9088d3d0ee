package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLookups(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = repo.GetUserByID(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetUserByFirebaseUID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	taken, err := repo.IdentityTaken(ctx, "someone", "alice@example.com", "", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.IdentityTaken(ctx, "someone", "someone@example.com", "p", "i")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestTouchLastSeenPost(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	at := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

	require.NoError(t, repo.TouchLastSeenPost(ctx, alice.ID, at))

	got, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSeenPostAt)
	assert.True(t, at.Equal(*got.LastSeenPostAt))

	assert.ErrorIs(t, repo.TouchLastSeenPost(ctx, 404, at), ErrUserNotFound)
}

func TestUpdateUserKeepsFeedBookmark(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	stale, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)

	at := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastSeenPost(ctx, alice.ID, at))

	stale.FullName = "Alice Tan"
	require.NoError(t, repo.UpdateUser(ctx, stale))

	got, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Tan", got.FullName)
	require.NotNil(t, got.LastSeenPostAt)
	assert.True(t, at.Equal(*got.LastSeenPostAt))
}

func TestCreateUserDuplicateIsUserExists(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")

	err := repo.CreateUser(ctx, &models.User{FullName: "Other", Username: "other", Email: alice.Email})
	assert.ErrorIs(t, err, ErrUserExists)

	err = repo.CreateUser(ctx, &models.User{FullName: "Alice Again", Username: "alice", Email: "fresh@example.com"})
	assert.ErrorIs(t, err, ErrUserExists)

	require.NoError(t, repo.CreateUser(ctx, &models.User{FullName: "Bob", Username: "bob", Email: "bob@example.com"}))
}

func TestBumpSessionVersion(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	stale, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)

	require.NoError(t, repo.BumpSessionVersion(ctx, alice.ID))
	require.NoError(t, repo.BumpSessionVersion(ctx, alice.ID))

	// a profile save with a stale copy must not resurrect old sessions
	stale.FullName = "Alice Tan"
	require.NoError(t, repo.UpdateUser(ctx, stale))

	got, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.SessionVersion)

	assert.ErrorIs(t, repo.BumpSessionVersion(ctx, 404), ErrUserNotFound)
}
