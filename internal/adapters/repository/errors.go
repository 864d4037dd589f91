package repository

import "errors"

// Sentinel kinds for fixture store errors.
var (
	ErrNotFound    = errors.New("fixture not found")
	ErrInvalidName = errors.New("invalid fixture name")
	ErrUnavailable = errors.New("fixture store unavailable")
)
