// Package persist saves and restores the application state through a
// core.Storage, one snapshot record at a time.
package persist

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/markwrite/pkg/core"
	"github.com/aretw0/markwrite/pkg/snapshot"
)

// DefaultKey is the record name the snapshot is stored under.
const DefaultKey = "markWriteState"

// Adapter is the persistence adapter of the store.
// Save is best effort and Load never fails: storage and decode errors are
// logged and reported as "nothing saved". A state whose record equals the
// stored one is not written again.
type Adapter struct {
	storage core.Storage
	codec   snapshot.Codec
	key     string
	logger  *slog.Logger

	saves     atomic.Int64
	skipped   atomic.Int64
	unchanged atomic.Int64
	failures  atomic.Int64
	lastSave  atomic.Int64 // unix nanos
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithCodec sets the snapshot codec (JSON by default).
func WithCodec(c snapshot.Codec) Option {
	return func(a *Adapter) {
		a.codec = c
	}
}

// WithLogger sets the logger for the adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter creates an adapter writing to storage.
func NewAdapter(storage core.Storage, opts ...Option) *Adapter {
	a := &Adapter{
		storage: storage,
		codec:   snapshot.NewCodec(nil),
		key:     DefaultKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the record name used by the adapter.
func (a *Adapter) Key() string {
	return a.key
}

// Save writes the whole state as one record. States without notes are never
// written, so a user cannot be persisted into a session with nothing to open.
func (a *Adapter) Save(ctx context.Context, state core.AppState) {
	_ = a.save(ctx, state)
}

func (a *Adapter) save(ctx context.Context, state core.AppState) error {
	if len(state.Notes) == 0 {
		a.skipped.Add(1)
		a.debug("skipping save of empty state")
		return nil
	}

	data, err := a.codec.Encode(state)
	if err != nil {
		a.fail("encode snapshot", err)
		return err
	}

	if a.stored(ctx, data) {
		a.unchanged.Add(1)
		a.debug("snapshot unchanged, not written")
		return nil
	}

	if err := a.storage.Write(ctx, a.key, data); err != nil {
		a.fail("write snapshot", err)
		return err
	}

	a.saves.Add(1)
	a.lastSave.Store(time.Now().UnixNano())
	a.debug("snapshot saved", "notes", len(state.Notes), "bytes", len(data))
	return nil
}

// stored reports whether the record under the key already holds data.
func (a *Adapter) stored(ctx context.Context, data []byte) bool {
	current, err := a.storage.Read(ctx, a.key)
	return err == nil && bytes.Equal(current, data)
}

// Load reads and decodes the snapshot. ok is false when no record exists or
// when it cannot be decoded.
func (a *Adapter) Load(ctx context.Context) (core.AppState, bool) {
	data, err := a.storage.Read(ctx, a.key)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			a.debug("no snapshot found", "key", a.key)
		} else if a.logger != nil {
			a.logger.Warn("failed to read snapshot", "key", a.key, "error", err)
		}
		return core.AppState{}, false
	}

	state, err := a.codec.Decode(data)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("discarding unreadable snapshot", "key", a.key, "error", err)
		}
		return core.AppState{}, false
	}
	return state, true
}

func (a *Adapter) fail(msg string, err error) {
	a.failures.Add(1)
	if a.logger != nil {
		a.logger.Error(msg, "key", a.key, "error", err)
	}
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

// AdapterState exposes internal state for observability.
type AdapterState struct {
	Key       string     `json:"key"`
	Storage   string     `json:"storage"`
	Saves     int64      `json:"saves"`
	Skipped   int64      `json:"skipped_empty"`
	Unchanged int64      `json:"unchanged"`
	Failures  int64      `json:"failures"`
	LastSave  *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (a *Adapter) State() any {
	storage := "storage"
	if comp, ok := a.storage.(introspection.Component); ok {
		storage = comp.ComponentType()
	}

	st := AdapterState{
		Key:       a.key,
		Storage:   storage,
		Saves:     a.saves.Load(),
		Skipped:   a.skipped.Load(),
		Unchanged: a.unchanged.Load(),
		Failures:  a.failures.Load(),
	}
	if ns := a.lastSave.Load(); ns != 0 {
		t := time.Unix(0, ns)
		st.LastSave = &t
	}
	return st
}

// ComponentType implements introspection.Component.
func (a *Adapter) ComponentType() string {
	return "persistence"
}

var _ introspection.Introspectable = (*Adapter)(nil)
var _ introspection.Component = (*Adapter)(nil)
var _ core.Loader = (*Adapter)(nil)
var _ core.Saver = (*Adapter)(nil)
