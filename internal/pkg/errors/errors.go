package errors

import "errors"

// Shared application errors.
var (
	// ErrNotFound is returned when a record or cache entry does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned for malformed input, e.g. an update
	// without an identity.
	ErrValidation = errors.New("validation failed")
)
