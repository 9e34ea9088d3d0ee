package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewRepository stores the history of applied moderation verdicts
type ReviewRepository interface {
	Record(ctx context.Context, review *models.ModerationReview) error
	ListByPost(ctx context.Context, postID uint, limit int64) ([]models.ModerationReview, error)
}

// MongoReviewRepository implements ReviewRepository for MongoDB
type MongoReviewRepository struct {
	collection *mongo.Collection
}

// NewMongoReviewRepository creates a new MongoReviewRepository
func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{collection: db.Collection("moderation_reviews")}
}

// Record inserts one review document
func (r *MongoReviewRepository) Record(ctx context.Context, review *models.ModerationReview) error {
	review.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// ListByPost returns the newest reviews of a post first
func (r *MongoReviewRepository) ListByPost(ctx context.Context, postID uint, limit int64) ([]models.ModerationReview, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "reviewed_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []models.ModerationReview{}
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

// NopReviewRepository discards reviews; used when MongoDB is not configured
type NopReviewRepository struct{}

// Record does nothing
func (NopReviewRepository) Record(context.Context, *models.ModerationReview) error { return nil }

// ListByPost always returns an empty history
func (NopReviewRepository) ListByPost(context.Context, uint, int64) ([]models.ModerationReview, error) {
	return []models.ModerationReview{}, nil
}
