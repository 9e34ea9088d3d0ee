package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	IdentityTaken(ctx context.Context, username, email, phoneNo, icNo string) (bool, error)
	UpdateUser(ctx context.Context, user *models.User) error
	TouchLastSeenPost(ctx context.Context, id uint, at time.Time) error
	BumpSessionVersion(ctx context.Context, id uint) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return userWriteError("failed to create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetUserByEmail retrieves a user by email
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetUserByFirebaseUID retrieves a user by Firebase UID
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.first(ctx, "firebase_uid = ?", firebaseUID)
}

func (r *PostgresUserRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// IdentityTaken reports whether any unique registration field is already in use
func (r *PostgresUserRepository) IdentityTaken(ctx context.Context, username, email, phoneNo, icNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ? OR phone_no = ? OR ic_no = ?", username, email, phoneNo, icNo).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check identity: %w", err)
	}
	return count > 0, nil
}

// UpdateUser updates an existing user in PostgreSQL. The feed bookmark and
// the session version have their own writers and are never written here.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit("last_seen_post_at", "session_version").Save(user).Error; err != nil {
		return userWriteError("failed to update user", err)
	}
	return nil
}

// userWriteError needs a gorm.DB opened with TranslateError
func userWriteError(msg string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", msg, ErrUserExists)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// TouchLastSeenPost records when the user last loaded the feed
func (r *PostgresUserRepository) TouchLastSeenPost(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_seen_post_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to update last seen: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// BumpSessionVersion invalidates every token issued to the user so far
func (r *PostgresUserRepository) BumpSessionVersion(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("session_version", gorm.Expr("session_version + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to end sessions: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
