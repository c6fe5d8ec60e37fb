package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/markwrite/pkg/adapters/fs"
	"github.com/aretw0/markwrite/pkg/core"
	"github.com/aretw0/markwrite/pkg/git"
	"github.com/aretw0/markwrite/pkg/persist"
	"github.com/aretw0/markwrite/pkg/snapshot"
)

// ErrNotSupported is returned when the storage lacks a capability
// (watching, history).
var ErrNotSupported = errors.New("not supported by this storage")

// Workspace is an opened markwrite session: a store bootstrapped from the
// storage and wired to save every change back to it.
type Workspace struct {
	path    string
	storage core.Storage
	store   *core.Store
	persist *persist.Adapter
	codec   snapshot.Codec
	saver   *persist.Autosaver
	boot    core.BootstrapResult
	logger  *slog.Logger

	mu     sync.Mutex
	reason string
}

// New opens the workspace stored at uri.
//
//	ws, err := markwrite.New(ctx, "~/notes", markwrite.WithAdapter("sqlite"))
//	defer ws.Close(ctx)
func New(ctx context.Context, uri string, opts ...Option) (*Workspace, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	serializer, err := snapshot.SerializerFor(o.format)
	if err != nil {
		return nil, err
	}

	storage, path, err := initStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	codec := snapshot.NewCodec(serializer)
	adapter := persist.NewAdapter(storage,
		persist.WithKey(o.key),
		persist.WithCodec(codec),
		persist.WithLogger(o.logger),
	)

	storeOpts := []core.StoreOption{core.WithStoreLogger(o.logger)}
	if o.clock != nil {
		storeOpts = append(storeOpts, core.WithClock(o.clock))
	}
	if o.newID != nil {
		storeOpts = append(storeOpts, core.WithIDGenerator(o.newID))
	}

	ws := &Workspace{
		path:    path,
		storage: storage,
		store:   core.NewStore(storeOpts...),
		persist: adapter,
		codec:   codec,
		logger:  o.logger,
	}

	ws.saver = persist.NewAutosaver(adapter,
		persist.WithAsync(o.asyncSave),
		persist.WithDebounce(o.saveDebounce),
		persist.WithAutosaveLogger(o.logger),
		persist.WithReason(ws.takeReason),
	)
	// Read-only workspaces never write.
	if !o.readOnly {
		ws.saver.Attach(ctx, ws.store)
	}

	// Bootstrap restores one setting at a time; only its final state is
	// saved, and not at all when it matches the stored snapshot.
	ws.setReason(FormatChangeReason(CommitTypeChore, "session", "bootstrap", ""))
	ws.saver.Pause()
	ws.boot = core.Bootstrap(ctx, ws.store, adapter, o.logger)
	ws.saver.Resume(ctx)
	ws.setReason("")

	return ws, nil
}

// Path is the resolved data directory ("" for in-memory storage).
func (w *Workspace) Path() string { return w.path }

// Store returns the state store.
func (w *Workspace) Store() *core.Store { return w.store }

// State returns the current state.
func (w *Workspace) State() core.AppState { return w.store.State() }

// Storage returns the storage backing the workspace.
func (w *Workspace) Storage() core.Storage { return w.storage }

// Persistence returns the persistence adapter.
func (w *Workspace) Persistence() *persist.Adapter { return w.persist }

// Bootstrap reports how the workspace was initialised.
func (w *Workspace) Bootstrap() core.BootstrapResult { return w.boot }

// Dispatch applies a to the store. The action is described in the commit
// message when the storage is versioned.
func (w *Workspace) Dispatch(a core.Action) {
	w.setReason(ReasonFor(a))
	w.store.Dispatch(a)
	w.setReason("")
}

func (w *Workspace) setReason(r string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reason = r
}

func (w *Workspace) takeReason() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reason
}

// Reload replaces the in-memory state with the persisted snapshot, e.g.
// after another process changed it. It reports false when the snapshot is
// missing or unreadable, leaving the state untouched.
func (w *Workspace) Reload(ctx context.Context) bool {
	state, ok := w.persist.Load(ctx)
	if !ok {
		return false
	}
	w.setReason(FormatChangeReason(CommitTypeChore, "session", "reload", ""))
	w.saver.Pause()
	core.Restore(w.store, state)
	w.saver.Resume(ctx)
	w.setReason("")
	return true
}

// Watch reports outside changes of the snapshot record.
func (w *Workspace) Watch(ctx context.Context) (<-chan core.Event, error) {
	watchable, ok := w.storage.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("watch: %w", ErrNotSupported)
	}
	return watchable.Watch(ctx, w.persist.Key())
}

// History lists the saved versions of the snapshot, newest first.
func (w *Workspace) History(ctx context.Context, limit int) ([]git.Commit, error) {
	repo, ok := w.storage.(*fs.Repository)
	if !ok {
		return nil, fmt.Errorf("history: %w", ErrNotSupported)
	}
	return repo.History(ctx, w.persist.Key(), limit)
}

// Revision decodes the snapshot as it was at commit rev.
func (w *Workspace) Revision(ctx context.Context, rev string) (core.AppState, error) {
	repo, ok := w.storage.(*fs.Repository)
	if !ok {
		return core.AppState{}, fmt.Errorf("revision: %w", ErrNotSupported)
	}
	data, err := repo.Revision(ctx, w.persist.Key(), rev)
	if err != nil {
		return core.AppState{}, err
	}
	return w.codec.Decode(data)
}

// Flush waits for pending asynchronous saves.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.saver.Flush(ctx)
}

// Close flushes pending saves and releases the storage.
func (w *Workspace) Close(ctx context.Context) error {
	err := w.saver.Close(ctx)
	if closer, ok := w.storage.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Components lists the introspectable parts of the workspace.
func (w *Workspace) Components() []introspection.Component {
	comps := []introspection.Component{w.persist, w.saver}
	if c, ok := w.storage.(introspection.Component); ok {
		comps = append(comps, c)
	}
	return comps
}

// Status gathers the state of every component keyed by component type.
func (w *Workspace) Status() map[string]any {
	out := make(map[string]any)
	for _, c := range w.Components() {
		if i, ok := c.(introspection.Introspectable); ok {
			out[c.ComponentType()] = i.State()
		}
	}
	return out
}
