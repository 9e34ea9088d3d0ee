package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"go.uber.org/zap"
)

// FeedQuery selects the posts a viewer sees
type FeedQuery struct {
	ViewerID     uint
	PostType     models.PostType
	SpecificUser bool
	TargetUserID *uint // with SpecificUser; defaults to the viewer
	Page         int
	Limit        int
}

// NewPostsNotice summarizes posts verified since the viewer last loaded the feed
type NewPostsNotice struct {
	HasNotification bool   `json:"-"`
	Count           int64  `json:"count"`
	OwnVerified     int64  `json:"own_verified"`
	Message         string `json:"message"`
}

// FeedService composes the feed and the new-post notification
type FeedService struct {
	posts      repositories.PostRepository
	engagement repositories.EngagementRepository
	users      repositories.UserRepository
	now        func() time.Time
	logger     *zap.Logger
}

// NewFeedService creates a new FeedService
func NewFeedService(
	posts repositories.PostRepository,
	engagement repositories.EngagementRepository,
	users repositories.UserRepository,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		posts:      posts,
		engagement: engagement,
		users:      users,
		now:        time.Now,
		logger:     logger.Named("feed"),
	}
}

// ListPosts returns active posts newest first, each flagged with whether the
// viewer likes it, and marks the feed as seen by the viewer.
func (s *FeedService) ListPosts(ctx context.Context, q FeedQuery) ([]models.FeedPost, error) {
	filter := repositories.PostFilter{}
	if q.SpecificUser {
		owner := q.ViewerID
		if q.TargetUserID != nil {
			owner = *q.TargetUserID
		}
		filter.OwnerID = &owner
	} else {
		filter.Type = q.PostType
	}
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		filter.Limit = q.Limit
		filter.Offset = (page - 1) * q.Limit
	}

	posts, err := s.posts.ListPosts(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	liked, err := s.engagement.LikedPostIDs(ctx, q.ViewerID, ids)
	if err != nil {
		return nil, err
	}

	feed := make([]models.FeedPost, len(posts))
	for i := range posts {
		feed[i] = models.FeedPost{Post: posts[i], IsLiked: liked[posts[i].ID]}
		if posts[i].Author != nil {
			author := posts[i].Author.ToCompact()
			feed[i].Author = &author
		}
	}

	if err := s.users.TouchLastSeenPost(ctx, q.ViewerID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to mark feed as seen", zap.Uint("user_id", q.ViewerID), zap.Error(err))
	}
	return feed, nil
}

// CountNewPosts counts posts verified since the viewer last loaded the feed.
// A viewer who never loaded it counts from now, so sees nothing.
func (s *FeedService) CountNewPosts(ctx context.Context, viewerID uint) (*NewPostsNotice, error) {
	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	since := s.now().UTC()
	if viewer.LastSeenPostAt != nil {
		since = viewer.LastSeenPostAt.UTC()
	}

	total, own, err := s.posts.CountVerifiedSince(ctx, since, viewerID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &NewPostsNotice{Message: "No new posts"}, nil
	}

	return &NewPostsNotice{
		HasNotification: true,
		Count:           total,
		OwnVerified:     own,
		Message:         noticeMessage(total, own),
	}, nil
}

func noticeMessage(total, own int64) string {
	msg := fmt.Sprintf("%d new %s since your last visit.", total, plural(total, "post", "posts"))
	if own > 0 {
		msg += fmt.Sprintf(" %d of your posts passed verification.", own)
	}
	return msg
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
