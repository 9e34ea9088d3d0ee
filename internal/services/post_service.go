package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"github.com/anonto42/farmfeed/backend/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// AllowedImageType reports whether contentType may be attached to a post
func AllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// ImageUpload is one image attached to a new post
type ImageUpload struct {
	ContentType string
	Body        io.Reader
}

// CreatePostInput holds a validated new post
type CreatePostInput struct {
	OwnerID  uint
	Caption  string
	Location *string
	Type     models.PostType
	Images   []ImageUpload
}

// PostService handles post authoring: create, edit and soft delete
type PostService struct {
	posts  repositories.PostRepository
	images storage.ImageStore
	logger *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, images storage.ImageStore, logger *zap.Logger) *PostService {
	return &PostService{posts: posts, images: images, logger: logger.Named("posts")}
}

// Create uploads the images and stores a new Active, Pending post.
// Uploaded objects are removed again if the post cannot be stored.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if len(in.Images) > models.MaxPostImages {
		return nil, fmt.Errorf("%w: at most %d images", ErrInvalidInput, models.MaxPostImages)
	}
	for _, img := range in.Images {
		if !AllowedImageType(img.ContentType) {
			return nil, fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, img.ContentType)
		}
	}

	paths := make(models.ImagePaths, 0, len(in.Images))
	for _, img := range in.Images {
		path := fmt.Sprintf("posts/%d/%s%s", in.OwnerID, uuid.NewString(), imageExtensions[img.ContentType])
		stored, err := s.images.Upload(ctx, path, img.ContentType, img.Body)
		if err != nil {
			s.discard(paths)
			return nil, err
		}
		paths = append(paths, stored)
	}

	pending := models.VerificationPending
	post := &models.Post{
		UserID:       in.OwnerID,
		Caption:      in.Caption,
		Images:       paths,
		Location:     in.Location,
		Type:         in.Type,
		Status:       models.PostActive,
		Verification: &pending,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.discard(paths)
		return nil, err
	}
	return post, nil
}

// Get returns an active post
func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	return s.posts.GetActivePost(ctx, postID)
}

// Update edits the caption and location of a post the requester owns.
// A nil caption keeps the current one; the location is always replaced.
func (s *PostService) Update(ctx context.Context, postID, requesterID uint, caption, location *string) (*models.Post, error) {
	if err := s.authorize(ctx, postID, requesterID); err != nil {
		return nil, err
	}
	if err := s.posts.UpdatePostContent(ctx, postID, caption, location); err != nil {
		return nil, err
	}
	return s.posts.GetActivePost(ctx, postID)
}

// Delete soft-deletes a post the requester owns. Images are kept.
func (s *PostService) Delete(ctx context.Context, postID, requesterID uint) error {
	if err := s.authorize(ctx, postID, requesterID); err != nil {
		return err
	}
	return s.posts.SoftDeletePost(ctx, postID)
}

func (s *PostService) authorize(ctx context.Context, postID, requesterID uint) error {
	post, err := s.posts.GetActivePost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return ErrUnauthorized
	}
	return nil
}

func (s *PostService) discard(paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.images.Delete(ctx, paths...); err != nil {
		s.logger.Warn("failed to remove orphaned images", zap.Strings("paths", paths), zap.Error(err))
	}
}
