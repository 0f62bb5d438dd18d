package repository

import "errors"

var (
	// ErrNotFound is returned when a requested key doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when the storage has been closed
	ErrClosed = errors.New("storage closed")
)
