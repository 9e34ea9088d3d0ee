package services

import (
	"errors"

	"github.com/anonto42/farmfeed/backend/internal/repositories"
)

var (
	// ErrPostNotFound is returned when the post does not exist or was deleted
	ErrPostNotFound = repositories.ErrPostNotFound

	// ErrUserNotFound is returned when the acting user no longer exists
	ErrUserNotFound = repositories.ErrUserNotFound

	// ErrUserExists is returned when a registration collides with an existing account
	ErrUserExists = repositories.ErrUserExists

	// ErrUnauthorized is returned when the requester does not own the post
	ErrUnauthorized = errors.New("not allowed to act on this post")

	// ErrModerationUnavailable is returned when the classifier could not produce a verdict.
	// The post is left unchanged.
	ErrModerationUnavailable = errors.New("moderation service unavailable")

	// ErrInvalidInput is returned for requests that pass binding but break a business rule
	ErrInvalidInput = errors.New("invalid input")
)
