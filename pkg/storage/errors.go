package storage

import "errors"

var (
	// ErrDisabled indicates archival is not configured.
	ErrDisabled = errors.New("storage archival disabled")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)
