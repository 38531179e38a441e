package identity

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a principal does not exist.
	ErrNotFound = errors.New("principal not found")

	// ErrEmailTaken is returned when a principal with the given email
	// already exists.
	ErrEmailTaken = errors.New("email already registered")
)
