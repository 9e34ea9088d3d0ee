package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModerationReview is one applied verification run, stored in MongoDB
type ModerationReview struct {
	ID                   primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	PostID               uint                   `json:"post_id" bson:"post_id"`
	RequesterID          uint                   `json:"requester_id" bson:"requester_id"`
	PreviousVerification VerificationStatus     `json:"previous_verification,omitempty" bson:"previous_verification,omitempty"`
	Verification         VerificationStatus     `json:"verification" bson:"verification"`
	Verdict              map[string]interface{} `json:"verdict" bson:"verdict"`
	ReviewedAt           time.Time              `json:"reviewed_at" bson:"reviewed_at"`
}
