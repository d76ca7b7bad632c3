package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

// Circulation errors
var (
	ErrNoCopies          = errors.New("no available copies")
	ErrInvalidTransition = errors.New("invalid issue status transition")
	ErrAccountBlocked    = errors.New("account is blocked")
)
