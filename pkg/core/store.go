package core

import "context"

// Store defines the contract for the key/value backing store.
// Adhering to this interface keeps the manager independent of the
// underlying storage mechanism (files, SQLite, Redis, memory).
type Store interface {
	// Get returns the raw value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Initialize ensures the underlying storage is ready (directories, schema, ping).
	Initialize(ctx context.Context) error
}

// Deleter is implemented by stores that can remove a key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Watchable is implemented by stores that can report external changes.
type Watchable interface {
	// Watch emits an event every time a record changes outside this process.
	// pattern is a glob matched against record keys.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
