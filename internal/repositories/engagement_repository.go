package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository defines the interface for likes and views
type EngagementRepository interface {
	SetLiked(ctx context.Context, postID, userID uint, liked bool) (bool, error)
	IncrementViews(ctx context.Context, postID uint) error
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
}

// PostgresEngagementRepository implements EngagementRepository with GORM
type PostgresEngagementRepository struct {
	db *gorm.DB
}

// NewPostgresEngagementRepository creates a new PostgresEngagementRepository
func NewPostgresEngagementRepository(db *gorm.DB) *PostgresEngagementRepository {
	return &PostgresEngagementRepository{db: db}
}

// SetLiked moves the (user, post) like state to liked and adjusts the post's
// likes_count only when the state actually flipped. It returns whether it did.
//
// The interaction row is created with ON CONFLICT DO NOTHING and flipped with
// a conditional UPDATE, so concurrent toggles for the same pair change the
// counter at most once per transition.
func (r *PostgresEngagementRepository) SetLiked(ctx context.Context, postID, userID uint, liked bool) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Post{}).
			Where("id = ? AND post_status = ?", postID, models.PostActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active == 0 {
			return ErrPostNotFound
		}

		row := models.UserPost{UserID: userID, PostID: postID, IsLiked: false, Status: models.InteractionActive}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}

		flip := tx.Model(&models.UserPost{}).
			Where("user_id = ? AND post_id = ? AND is_liked = ?", userID, postID, !liked).
			Updates(map[string]interface{}{
				"is_liked":        liked,
				"userpost_status": models.InteractionActive,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return nil
		}

		counter := tx.Model(&models.Post{}).Where("id = ?", postID)
		if liked {
			counter = counter.UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1))
		} else {
			counter = counter.Where("likes_count > 0").UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1))
		}
		if counter.Error != nil {
			return counter.Error
		}
		changed = true
		return nil
	})
	if errors.Is(err, ErrPostNotFound) {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("failed to set like: %w", err)
	}
	return changed, nil
}

// IncrementViews adds one view to an active post in a single statement
func (r *PostgresEngagementRepository) IncrementViews(ctx context.Context, postID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND post_status = ?", postID, models.PostActive).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to record view: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// LikedPostIDs returns the subset of postIDs the user currently likes
func (r *PostgresEngagementRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.UserPost{}).
		Where("user_id = ? AND post_id IN ? AND is_liked = ?", userID, postIDs, true).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load liked posts: %w", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
