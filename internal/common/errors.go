package common

import "errors"

// Business logic errors
var (
	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyContent = errors.New("comment content is empty")
	ErrGuestFields  = errors.New("guest comments require a name and email")
	ErrBadParent    = errors.New("parent comment does not exist on this post")

	// Auth errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")

	// Lookup errors
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")

	// Rate limiting
	ErrRateLimited = errors.New("too many requests")
)
