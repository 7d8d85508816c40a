package domain

import "errors"

// Validation errors for user-supplied selections.
var (
	// ErrUnknownChain is returned when a chain name is not supported.
	ErrUnknownChain = errors.New("unknown chain")

	// ErrUnknownCategory is returned when a category name is not one of
	// new, final_stretch or migrated.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidSort is returned for an unknown sort field or direction.
	ErrInvalidSort = errors.New("invalid sort")
)
