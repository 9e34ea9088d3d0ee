package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the account that owns posts and interactions
type User struct {
	ID             uint       `json:"entID" gorm:"primaryKey"`
	FullName       string     `json:"ent_fullname" gorm:"size:120;not null"`
	Username       string     `json:"ent_username" gorm:"size:50;not null;uniqueIndex"`
	Email          string     `json:"ent_email" gorm:"not null;uniqueIndex"`
	PhoneNo        *string    `json:"ent_phoneNo,omitempty" gorm:"column:phone_no;size:20;uniqueIndex"`
	ICNo           *string    `json:"-" gorm:"column:ic_no;size:20;uniqueIndex"`
	DOB            *time.Time `json:"ent_dob,omitempty" gorm:"column:dob;type:date"`
	Bio            *string    `json:"ent_bio,omitempty" gorm:"type:text"`
	ProfilePhoto   *string    `json:"ent_profilePhoto,omitempty"`
	BusinessName   *string    `json:"ent_business_name,omitempty"`
	BusinessSSMNo  *string    `json:"ent_business_ssmNo,omitempty" gorm:"column:business_ssm_no"`
	Password       string     `json:"-"`                                            // bcrypt hash
	FirebaseUID    *string    `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`     // set when linked through Firebase login
	LastSeenPostAt *time.Time `json:"last_seen_post_at,omitempty" gorm:"index"`
	SessionVersion uint       `json:"-" gorm:"not null;default:0"` // bumped on logout; older tokens stop working
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UserCompact is the author summary embedded in feed items
type UserCompact struct {
	ID           uint    `json:"entID"`
	FullName     string  `json:"ent_fullname"`
	Username     string  `json:"ent_username"`
	ProfilePhoto *string `json:"ent_profilePhoto,omitempty"`
}

// ToCompact returns the public summary of the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:           u.ID,
		FullName:     u.FullName,
		Username:     u.Username,
		ProfilePhoto: u.ProfilePhoto,
	}
}

// RegisterRequest defines the request body for local registration
type RegisterRequest struct {
	FullName      string `json:"ent_fullname" validate:"required,min=2,max=120"`
	ICNo          string `json:"ent_icNo" validate:"required,max=20"`
	DOB           string `json:"ent_dob" validate:"required,datetime=2006-01-02"`
	PhoneNo       string `json:"ent_phoneNo" validate:"required,max=20"`
	Email         string `json:"ent_email" validate:"required,email"`
	Username      string `json:"ent_username" validate:"required,min=3,max=50"`
	Password      string `json:"ent_password" validate:"required,min=8"`
	BusinessName  string `json:"ent_business_name" validate:"omitempty,max=120"`
	BusinessSSMNo string `json:"ent_business_ssmNo" validate:"omitempty,max=40"`
}

// LoginRequest defines the request body for username/password login
type LoginRequest struct {
	Username string `json:"ent_username" validate:"required"`
	Password string `json:"ent_password" validate:"required"`
}

// UpdateProfileRequest defines the editable profile fields. An empty string clears an optional field.
type UpdateProfileRequest struct {
	FullName      *string `json:"ent_fullname" validate:"omitempty,min=2,max=120"`
	Bio           *string `json:"ent_bio" validate:"omitempty,max=500"`
	ProfilePhoto  *string `json:"ent_profilePhoto" validate:"omitempty,url"`
	BusinessName  *string `json:"ent_business_name" validate:"omitempty,max=120"`
	BusinessSSMNo *string `json:"ent_business_ssmNo" validate:"omitempty,max=40"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID         uint   `json:"user_id"`
	Username       string `json:"username"`
	SessionVersion uint   `json:"sv"`
	jwt.RegisteredClaims
}
