package core

import "errors"

// Common errors.
var (
	// ErrInvalidInput is returned when a mutation is rejected before touching state.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageFailure wraps any failure of the backing store.
	// In-memory state may already hold the mutation when this is returned.
	ErrStorageFailure = errors.New("storage failure")
	// ErrNotFound is returned by stores when a key does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotLoaded is returned when the manager is used before Load.
	ErrNotLoaded = errors.New("state not loaded")
	ErrReadOnly  = errors.New("store is in read-only mode")
)
