package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/moderation"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"go.uber.org/zap"
)

// Moderator classifies rendered post content
type Moderator interface {
	Classify(ctx context.Context, content string) (*moderation.Verdict, error)
}

// URLResolver turns a stored image path into a public URL
type URLResolver interface {
	PublicURL(path string) string
}

// VerificationConfig holds the moderation policy
type VerificationConfig struct {
	Threshold     float64
	AllowReverify bool
}

// VerificationOutcome is the result kind of a verification request
type VerificationOutcome string

const (
	OutcomeVerified        VerificationOutcome = "Verified"
	OutcomeFailed          VerificationOutcome = "Failed"
	OutcomeAlreadyReviewed VerificationOutcome = "AlreadyReviewed"
)

// VerificationResult is returned for every verification that reached a verdict
type VerificationResult struct {
	Outcome VerificationOutcome    `json:"outcome"`
	Message string                 `json:"-"`
	Post    *models.Post           `json:"post"`
	Verdict map[string]interface{} `json:"verdict"`
}

// VerificationService runs posts through moderation and records the verdict
type VerificationService struct {
	posts     repositories.PostRepository
	reviews   repositories.ReviewRepository
	images    URLResolver
	moderator Moderator
	cfg       VerificationConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(
	posts repositories.PostRepository,
	reviews repositories.ReviewRepository,
	images URLResolver,
	moderator Moderator,
	cfg VerificationConfig,
	logger *zap.Logger,
) *VerificationService {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.3
	}
	return &VerificationService{
		posts:     posts,
		reviews:   reviews,
		images:    images,
		moderator: moderator,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.Named("verification"),
	}
}

// Verify classifies the post's caption and images and moves it to Verified or Failed.
// A content failure is a normal result; only infrastructure problems return an error.
func (s *VerificationService) Verify(ctx context.Context, postID, requesterID uint) (*VerificationResult, error) {
	post, err := s.posts.GetActivePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != requesterID {
		return nil, ErrUnauthorized
	}
	if post.IsReviewed() && !s.cfg.AllowReverify {
		return alreadyReviewed(post), nil
	}

	urls := make([]string, 0, len(post.Images))
	for _, p := range post.Images {
		urls = append(urls, s.images.PublicURL(p))
	}

	// no transaction is open here; the classifier call may take seconds
	verdict, err := s.moderator.Classify(ctx, moderation.BuildContent(post.Caption, urls))
	if err != nil {
		s.logger.Error("moderation failed", zap.Uint("post_id", postID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrModerationUnavailable, err)
	}

	reviewedAt := s.now().UTC()
	status := models.VerificationVerified
	outcome := OutcomeVerified
	message := "Post verified successfully"
	verifiedAt := &reviewedAt
	if verdict.Unsafe(s.cfg.Threshold) {
		status = models.VerificationFailed
		outcome = OutcomeFailed
		message = "Post failed verification due to unsafe content"
		verifiedAt = nil
	}

	applied, err := s.posts.ApplyVerification(ctx, repositories.VerificationUpdate{
		PostID:          post.ID,
		Status:          status,
		Details:         verdict.Raw,
		VerifiedAt:      verifiedAt,
		OnlyFromPending: !s.cfg.AllowReverify,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := s.posts.GetActivePost(ctx, postID)
		if err != nil {
			return nil, err
		}
		return alreadyReviewed(current), nil
	}

	previous := post.VerificationState()
	post.Verification = &status
	post.VerificationDetails = verdict.Raw
	post.VerifiedAt = verifiedAt

	s.recordReview(ctx, &models.ModerationReview{
		PostID:               post.ID,
		RequesterID:          requesterID,
		PreviousVerification: previous,
		Verification:         status,
		Verdict:              verdict.Raw,
		ReviewedAt:           reviewedAt,
	})

	return &VerificationResult{Outcome: outcome, Message: message, Post: post, Verdict: verdict.Raw}, nil
}

// History returns the review log of a post the requester owns
func (s *VerificationService) History(ctx context.Context, postID, requesterID uint, limit int64) ([]models.ModerationReview, error) {
	post, err := s.posts.GetActivePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != requesterID {
		return nil, ErrUnauthorized
	}
	reviews, err := s.reviews.ListByPost(ctx, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load review history: %w", err)
	}
	return reviews, nil
}

func (s *VerificationService) recordReview(ctx context.Context, review *models.ModerationReview) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.reviews.Record(ctx, review); err != nil {
		s.logger.Warn("failed to record moderation review",
			zap.Uint("post_id", review.PostID),
			zap.Error(err))
	}
}

func alreadyReviewed(post *models.Post) *VerificationResult {
	return &VerificationResult{
		Outcome: OutcomeAlreadyReviewed,
		Message: fmt.Sprintf("Post has already been reviewed (%s)", post.VerificationState()),
		Post:    post,
		Verdict: post.VerificationDetails,
	}
}
