package chat

import "errors"

var (
	ErrInvalidInput    = errors.New("message is required")
	ErrSessionNotFound = errors.New("chat not found")
	ErrOwnerNotFound   = errors.New("user not found")
	// ErrTransient wraps storage failures; the caller may retry.
	ErrTransient = errors.New("chat storage unavailable")
)
