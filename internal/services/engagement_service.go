package services

import (
	"context"

	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"go.uber.org/zap"
)

// LikeOutcome reports the like state after a request
type LikeOutcome struct {
	PostID  uint   `json:"postID"`
	IsLiked bool   `json:"is_liked"`
	Changed bool   `json:"changed"`
	Message string `json:"-"`
}

// EngagementService maintains like and view counters
type EngagementService struct {
	engagement repositories.EngagementRepository
	logger     *zap.Logger
}

// NewEngagementService creates a new EngagementService
func NewEngagementService(engagement repositories.EngagementRepository, logger *zap.Logger) *EngagementService {
	return &EngagementService{engagement: engagement, logger: logger.Named("engagement")}
}

// SetLiked sets the user's like state for a post. Repeating the current
// state is a successful no-op.
func (s *EngagementService) SetLiked(ctx context.Context, postID, userID uint, liked bool) (*LikeOutcome, error) {
	changed, err := s.engagement.SetLiked(ctx, postID, userID, liked)
	if err != nil {
		return nil, err
	}

	message := "Post liked successfully"
	if !liked {
		message = "Post unliked successfully"
	}
	s.logger.Debug("like state set",
		zap.Uint("post_id", postID),
		zap.Uint("user_id", userID),
		zap.Bool("liked", liked),
		zap.Bool("changed", changed))

	return &LikeOutcome{PostID: postID, IsLiked: liked, Changed: changed, Message: message}, nil
}

// RecordView counts one view. Every call counts; there is no per-user dedup.
func (s *EngagementService) RecordView(ctx context.Context, postID uint) error {
	return s.engagement.IncrementViews(ctx, postID)
}
