package core

import "context"

// Storage defines the contract for durable key-value records.
// The snapshot of the application state is written as a single record, so the
// core stays independent of the underlying mechanism (Filesystem, SQLite,
// memory, etc).
type Storage interface {
	// Initialize ensures the underlying storage is ready (e.g., create directories, git init, schema migration).
	Initialize(ctx context.Context) error

	// Read returns the record stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the record stored under key. It must never leave a
	// partially written record behind.
	Write(ctx context.Context, key string, data []byte) error

	// Delete removes the record stored under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Watchable defines an interface for storages that can report external
// modifications of their records.
type Watchable interface {
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Loader restores a previously persisted state.
// ok is false when nothing usable was found; Load never fails otherwise.
type Loader interface {
	Load(ctx context.Context) (state AppState, ok bool)
}

// Saver persists a state. Implementations are best effort.
type Saver interface {
	Save(ctx context.Context, state AppState)
}

type contextKey string

// ChangeReasonKey is the context key for passing specific change reasons (commit messages) during Write operations.
const ChangeReasonKey contextKey = "change_reason"
