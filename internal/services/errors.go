package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these
// into HTTP statuses at the dispatch boundary so raw database error text
// never reaches a response body.
var (
	ErrMissingFields      = errors.New("required fields are missing")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrBlogNotFound       = errors.New("blog not found")
	ErrSessionNotFound    = errors.New("session not found or expired")

	// ErrNotOwner is the affected-rows signal: the mutation's WHERE clause
	// requires both row id and acting user id, so zero affected rows means
	// either "not found" or "not the owner". The two are deliberately
	// collapsed to avoid leaking row existence to non-owners.
	ErrNotOwner = errors.New("blog not found or not owned by user")
)
