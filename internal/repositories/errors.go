package repositories

import "errors"

var (
	// ErrPostNotFound indicates no active post matched
	ErrPostNotFound = errors.New("post not found")

	// ErrUserNotFound indicates no user matched
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates a unique user field is already taken
	ErrUserExists = errors.New("user already exists")
)
