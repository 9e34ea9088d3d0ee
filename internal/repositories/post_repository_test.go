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

func TestListPosts_FiltersAndOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresPostRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	p1 := testutil.SeedPost(t, db, alice, "one", testutil.WithCreatedAt(base), testutil.WithType(models.PostTypeAnnouncement))
	p2 := testutil.SeedPost(t, db, bob, "two", testutil.WithCreatedAt(base.Add(time.Hour)))
	p3 := testutil.SeedPost(t, db, alice, "three", testutil.WithCreatedAt(base.Add(2*time.Hour)))
	testutil.SeedPost(t, db, alice, "deleted", testutil.WithCreatedAt(base.Add(3*time.Hour)), testutil.Deleted())

	all, err := repo.ListPosts(ctx, PostFilter{Type: models.PostTypeAll})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})
	require.NotNil(t, all[0].Author)
	assert.Equal(t, "alice", all[0].Author.Username)

	announcements, err := repo.ListPosts(ctx, PostFilter{Type: models.PostTypeAnnouncement})
	require.NoError(t, err)
	require.Len(t, announcements, 1)
	assert.Equal(t, p1.ID, announcements[0].ID)

	owned, err := repo.ListPosts(ctx, PostFilter{OwnerID: &alice.ID})
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	page, err := repo.ListPosts(ctx, PostFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, p2.ID, page[0].ID)
}

func TestListPosts_EmptyIsNotNil(t *testing.T) {
	db := testutil.NewDB(t)
	posts, err := NewPostgresPostRepository(db).ListPosts(context.Background(), PostFilter{})
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestApplyVerification_OnlyFromPending(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresPostRepository(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner")
	post := testutil.SeedPost(t, db, owner, "clean")
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	applied, err := repo.ApplyVerification(ctx, VerificationUpdate{
		PostID:          post.ID,
		Status:          models.VerificationVerified,
		Details:         map[string]interface{}{"dangerous_text": 0.01},
		VerifiedAt:      &at,
		OnlyFromPending: true,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	reloaded := testutil.ReloadPost(t, db, post.ID)
	assert.Equal(t, models.VerificationVerified, reloaded.VerificationState())
	require.NotNil(t, reloaded.VerifiedAt)
	assert.True(t, at.Equal(*reloaded.VerifiedAt))
	assert.Contains(t, reloaded.VerificationDetails, "dangerous_text")

	applied, err = repo.ApplyVerification(ctx, VerificationUpdate{
		PostID:          post.ID,
		Status:          models.VerificationFailed,
		OnlyFromPending: true,
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.VerificationVerified, testutil.ReloadPost(t, db, post.ID).VerificationState())

	applied, err = repo.ApplyVerification(ctx, VerificationUpdate{
		PostID: post.ID,
		Status: models.VerificationFailed,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	reloaded = testutil.ReloadPost(t, db, post.ID)
	assert.Equal(t, models.VerificationFailed, reloaded.VerificationState())
	assert.Nil(t, reloaded.VerifiedAt)
}

func TestUpdateAndSoftDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresPostRepository(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner")
	post := testutil.SeedPost(t, db, owner, "old caption")

	caption := "new caption"
	location := "Kedah"
	require.NoError(t, repo.UpdatePostContent(ctx, post.ID, &caption, &location))

	got, err := repo.GetActivePost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "new caption", got.Caption)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Kedah", *got.Location)

	require.NoError(t, repo.SoftDeletePost(ctx, post.ID))
	_, err = repo.GetActivePost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, repo.SoftDeletePost(ctx, post.ID), ErrPostNotFound)
	assert.ErrorIs(t, repo.UpdatePostContent(ctx, post.ID, &caption, nil), ErrPostNotFound)
}

func TestCountVerifiedSince(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostgresPostRepository(db)
	ctx := context.Background()

	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before := since.Add(-time.Minute)
	after := since.Add(time.Minute)

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	testutil.SeedPost(t, db, alice, "old", testutil.WithVerification(models.VerificationVerified, &before))
	testutil.SeedPost(t, db, alice, "mine", testutil.WithVerification(models.VerificationVerified, &after))
	testutil.SeedPost(t, db, bob, "theirs", testutil.WithVerification(models.VerificationVerified, &since))
	testutil.SeedPost(t, db, bob, "failed", testutil.WithVerification(models.VerificationFailed, nil))
	testutil.SeedPost(t, db, bob, "deleted", testutil.WithVerification(models.VerificationVerified, &after), testutil.Deleted())

	total, own, err := repo.CountVerifiedSince(ctx, since, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), own)

	total, own, err = repo.CountVerifiedSince(ctx, after.Add(time.Second), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, own)
}
