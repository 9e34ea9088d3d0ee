package models

import (
	"time"

	"gorm.io/datatypes"
)

// PostType classifies a post in the feed
type PostType string

const (
	PostTypeAnnouncement PostType = "Announcement"
	PostTypeCommunity    PostType = "Community"

	// PostTypeAll is only valid as a feed filter
	PostTypeAll PostType = "All"
)

// PostStatus is the soft-delete flag of a post
type PostStatus int

const (
	PostDeleted PostStatus = 0
	PostActive  PostStatus = 1
)

// VerificationStatus is the moderation lifecycle of a post
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "Pending"
	VerificationVerified VerificationStatus = "Verified"
	VerificationFailed   VerificationStatus = "Failed"
)

// Post represents a user-authored feed item stored in PostgreSQL
type Post struct {
	ID                  uint                `json:"postID" gorm:"primaryKey"`
	UserID              uint                `json:"entID" gorm:"not null;index"`
	Author              *User               `json:"author,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Caption             string              `json:"post_caption" gorm:"column:post_caption;type:text"`
	Images              ImagePaths          `json:"post_images" gorm:"column:post_images"`
	Location            *string             `json:"post_location" gorm:"column:post_location;size:255"`
	Type                PostType            `json:"post_type" gorm:"column:post_type;size:20;index"`
	Status              PostStatus          `json:"post_status" gorm:"column:post_status;not null;default:1;index"`
	ViewsCount          int                 `json:"post_views_count" gorm:"column:views_count;not null;default:0"`
	LikesCount          int                 `json:"post_likes_count" gorm:"column:likes_count;not null;default:0"`
	Verification        *VerificationStatus `json:"post_verification" gorm:"column:verification;size:16"`
	VerificationDetails datatypes.JSONMap   `json:"post_verification_details" gorm:"column:verification_details"`
	VerifiedAt          *time.Time          `json:"post_verified_at" gorm:"column:verified_at;index"`
	CreatedAt           time.Time           `json:"created_at" gorm:"index"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// IsReviewed reports whether moderation already reached a terminal verdict
func (p *Post) IsReviewed() bool {
	if p.Verification == nil {
		return false
	}
	return *p.Verification == VerificationVerified || *p.Verification == VerificationFailed
}

// VerificationState returns the verification status, or "" when the post is untracked
func (p *Post) VerificationState() VerificationStatus {
	if p.Verification == nil {
		return ""
	}
	return *p.Verification
}

// FeedPost is a post with the viewer-specific like flag.
// Author shadows Post.Author so only the public summary is serialized.
type FeedPost struct {
	Post
	Author  *UserCompact `json:"author,omitempty"`
	IsLiked bool         `json:"is_liked"`
}

// CreatePostRequest defines the form fields for creating a new post.
// Images arrive as multipart files and are validated separately.
type CreatePostRequest struct {
	Caption  string `form:"post_caption" validate:"required,min=1,max=2000"`
	Location string `form:"post_location" validate:"omitempty,max=255"`
	Type     string `form:"post_type" validate:"required,oneof=Announcement Community"`
}

// UpdatePostRequest defines the request body for editing a post
type UpdatePostRequest struct {
	Caption  *string `json:"post_caption" validate:"omitempty,min=1,max=2000"`
	Location *string `json:"post_location" validate:"omitempty,max=255"`
}

// LikePostRequest defines the request body for liking or unliking a post
type LikePostRequest struct {
	PostID  uint  `json:"postID" validate:"required"`
	IsLiked *bool `json:"is_liked" validate:"required"`
}

// ViewPostRequest defines the request body for recording a view
type ViewPostRequest struct {
	PostID uint `json:"postID" validate:"required"`
}

// ListPostsRequest defines the request body for the feed query
type ListPostsRequest struct {
	PostType     string `json:"post_type" validate:"required,oneof=All Announcement Community"`
	SpecificUser bool   `json:"specific_user"`
	TargetUserID *uint  `json:"entID" validate:"omitempty,min=1"`
	Page         int    `json:"page" validate:"omitempty,min=1"`
	Limit        int    `json:"limit" validate:"omitempty,min=1,max=100"`
}
