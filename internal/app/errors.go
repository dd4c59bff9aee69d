package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound       = errors.New("not found")
	ErrLoadFailed     = errors.New("failed to fetch data")
	ErrInvalidCell    = errors.New("invalid grid cell")
	ErrNoColumns      = errors.New("at least one column is required")
	ErrInvalidVersion = errors.New("unsupported snapshot version")
)
