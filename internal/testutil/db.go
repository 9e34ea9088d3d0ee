// Package testutil provides a throwaway GORM database and seed helpers for
// package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with the schema migrated.
// It is limited to one connection so concurrent transactions serialize.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.UserPost{}))
	return db
}

// SeedUser inserts a user with unique identity fields derived from username
func SeedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	phone := "phone-" + username
	ic := "ic-" + username
	user := &models.User{
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Username: username,
		Email:    username + "@example.com",
		PhoneNo:  &phone,
		ICNo:     &ic,
		Password: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// PostOption customizes a seeded post
type PostOption func(*models.Post)

// WithType sets the post type
func WithType(pt models.PostType) PostOption {
	return func(p *models.Post) { p.Type = pt }
}

// WithImages sets the stored image paths
func WithImages(paths ...string) PostOption {
	return func(p *models.Post) { p.Images = paths }
}

// WithCreatedAt pins the creation time
func WithCreatedAt(at time.Time) PostOption {
	return func(p *models.Post) { p.CreatedAt = at }
}

// WithVerification sets the moderation state and timestamp
func WithVerification(status models.VerificationStatus, at *time.Time) PostOption {
	return func(p *models.Post) {
		p.Verification = &status
		p.VerifiedAt = at
	}
}

// Deleted marks the post soft-deleted after insert
func Deleted() PostOption {
	return func(p *models.Post) { p.Status = models.PostDeleted }
}

// SeedPost inserts an active Community post owned by owner
func SeedPost(t *testing.T, db *gorm.DB, owner *models.User, caption string, opts ...PostOption) *models.Post {
	t.Helper()

	post := &models.Post{
		UserID:  owner.ID,
		Caption: caption,
		Images:  models.ImagePaths{},
		Type:    models.PostTypeCommunity,
		Status:  models.PostActive,
	}
	for _, opt := range opts {
		opt(post)
	}

	// post_status has a column default, so a zero value must be written separately
	deleted := post.Status == models.PostDeleted
	post.Status = models.PostActive
	require.NoError(t, db.Omit("Author").Create(post).Error)
	if deleted {
		require.NoError(t, db.Model(post).Update("post_status", models.PostDeleted).Error)
		post.Status = models.PostDeleted
	}
	return post
}

// ReloadPost reads the post row back regardless of status
func ReloadPost(t *testing.T, db *gorm.DB, id uint) *models.Post {
	t.Helper()

	var post models.Post
	require.NoError(t, db.First(&post, id).Error)
	return &post
}
