// Package memory provides an in-process core.Storage. Records live for the
// lifetime of the value; nothing touches the disk.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/markwrite/pkg/core"
)

// Storage is a map-backed core.Storage safe for concurrent use.
type Storage struct {
	mu      sync.RWMutex
	records map[string][]byte
	writes  int
}

// New creates an empty storage.
func New() *Storage {
	return &Storage{records: make(map[string][]byte)}
}

// Initialize is a no-op.
func (s *Storage) Initialize(ctx context.Context) error {
	return nil
}

// Read returns a copy of the record stored under key.
func (s *Storage) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.records[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return clone(data), nil
}

// Write stores a copy of data under key.
func (s *Storage) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = clone(data)
	s.writes++
	return nil
}

// Delete removes key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Writes reports how many writes the storage accepted.
func (s *Storage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Records int `json:"records"`
	Writes  int `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StorageState{Records: len(s.records), Writes: s.writes}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory-storage"
}

var _ core.Storage = (*Storage)(nil)
var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
