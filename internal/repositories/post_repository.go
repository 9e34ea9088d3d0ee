package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PostFilter narrows a feed query. Deleted posts are always excluded.
type PostFilter struct {
	Type    models.PostType // empty or PostTypeAll matches every type
	OwnerID *uint
	Offset  int
	Limit   int // 0 returns every match
}

// VerificationUpdate is the outcome of one moderation run
type VerificationUpdate struct {
	PostID     uint
	Status     models.VerificationStatus
	Details    map[string]interface{}
	VerifiedAt *time.Time

	// OnlyFromPending restricts the write to posts still Pending or untracked
	OnlyFromPending bool
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetActivePost(ctx context.Context, id uint) (*models.Post, error)
	UpdatePostContent(ctx context.Context, id uint, caption *string, location *string) error
	SoftDeletePost(ctx context.Context, id uint) error
	ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error)
	ApplyVerification(ctx context.Context, update VerificationUpdate) (bool, error)
	CountVerifiedSince(ctx context.Context, since time.Time, ownerID uint) (total int64, own int64, err error)
}

// PostgresPostRepository implements PostRepository with GORM
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a new post
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetActivePost retrieves a non-deleted post by ID
func (r *PostgresPostRepository) GetActivePost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Where("id = ? AND post_status = ?", id, models.PostActive).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// UpdatePostContent sets the caption when given and always replaces the location
func (r *PostgresPostRepository) UpdatePostContent(ctx context.Context, id uint, caption *string, location *string) error {
	changes := map[string]interface{}{"post_location": location}
	if caption != nil {
		changes["post_caption"] = *caption
	}

	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND post_status = ?", id, models.PostActive).
		Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// SoftDeletePost flips the status flag; rows are never removed
func (r *PostgresPostRepository) SoftDeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND post_status = ?", id, models.PostActive).
		Update("post_status", models.PostDeleted)
	if res.Error != nil {
		return fmt.Errorf("failed to delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ListPosts returns active posts, newest first, with their authors loaded
func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	q := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_status = ?", models.PostActive)

	if filter.OwnerID != nil {
		q = q.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.Type != "" && filter.Type != models.PostTypeAll {
		q = q.Where("post_type = ?", filter.Type)
	}

	q = q.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}

	posts := []models.Post{}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// ApplyVerification persists a moderation verdict in a single conditional UPDATE.
// It reports false when no row matched, i.e. the post vanished or, with
// OnlyFromPending, another review already moved it out of Pending.
func (r *PostgresPostRepository) ApplyVerification(ctx context.Context, update VerificationUpdate) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND post_status = ?", update.PostID, models.PostActive)
	if update.OnlyFromPending {
		q = q.Where("(verification IS NULL OR verification = ?)", models.VerificationPending)
	}

	res := q.Updates(map[string]interface{}{
		"verification":         update.Status,
		"verification_details": datatypes.JSONMap(update.Details),
		"verified_at":          update.VerifiedAt,
	})
	if res.Error != nil {
		return false, fmt.Errorf("failed to apply verification: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CountVerifiedSince counts active posts verified at or after since,
// and how many of those belong to ownerID
func (r *PostgresPostRepository) CountVerifiedSince(ctx context.Context, since time.Time, ownerID uint) (int64, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Post{}).
			Where("post_status = ? AND verified_at IS NOT NULL AND verified_at >= ?", models.PostActive, since)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count new posts: %w", err)
	}
	if total == 0 {
		return 0, 0, nil
	}

	var own int64
	if err := base().Where("user_id = ?", ownerID).Count(&own).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count own verified posts: %w", err)
	}
	return total, own, nil
}
