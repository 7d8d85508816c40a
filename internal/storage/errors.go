package storage

import "errors"

// Storage errors for the working set.
var (
	// ErrNotFound is returned when a requested token does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a token whose id is
	// already present in the working set.
	ErrDuplicateKey = errors.New("duplicate key: token id already in working set")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
