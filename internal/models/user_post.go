package models

import "time"

// InteractionStatus marks an interaction row active or inactive
type InteractionStatus int

const (
	InteractionInactive InteractionStatus = 0
	InteractionActive   InteractionStatus = 1
)

// UserPost is the per-(user, post) interaction row tracking like state.
// Rows are created lazily and never deleted; only IsLiked toggles.
type UserPost struct {
	ID        uint              `json:"userpostID" gorm:"primaryKey"`
	UserID    uint              `json:"entID" gorm:"not null;uniqueIndex:idx_user_post"`
	PostID    uint              `json:"postID" gorm:"not null;uniqueIndex:idx_user_post;index"`
	IsLiked   bool              `json:"is_liked" gorm:"not null"`
	Status    InteractionStatus `json:"userpost_status" gorm:"column:userpost_status;not null"`
	User      *User             `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Post      *Post             `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
