package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidField      = errors.New("invalid field")
	ErrImmutableField    = errors.New("immutable field")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidColumnType = errors.New("invalid column type")
	ErrInvalidIcon       = errors.New("invalid icon")
	ErrInvalidGroupID    = errors.New("invalid group id")
)
