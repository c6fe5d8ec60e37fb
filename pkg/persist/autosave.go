package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/markwrite/pkg/core"
)

// Autosaver persists every state published by a Store.
//
// In synchronous mode each change is written before Dispatch returns. In
// asynchronous mode changes go into a single pending slot that newer states
// overwrite, and one writer goroutine drains it: writes never overlap and
// the last state submitted is always the last one written.
//
// Pause and Resume group a run of transitions, such as a restore, into one
// save of the final state.
type Autosaver struct {
	adapter  *Adapter
	async    bool
	debounce time.Duration
	logger   *slog.Logger
	reason   func() string
	// source returns the latest state of the attached store.
	source func() core.AppState

	writeMu   sync.Mutex // serializes writes to the adapter
	mu        sync.Mutex
	pending   *pendingSave
	submitted uint64
	written   uint64
	progress  chan struct{}
	closed    bool
	paused    bool
	held      *core.AppState

	wake        chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe func()
}

type pendingSave struct {
	state  core.AppState
	reason string
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithAsync moves writes to a background writer.
func WithAsync(async bool) AutosaveOption {
	return func(a *Autosaver) {
		a.async = async
	}
}

// WithDebounce delays asynchronous writes so bursts of changes coalesce
// into one write. Ignored in synchronous mode.
func WithDebounce(d time.Duration) AutosaveOption {
	return func(a *Autosaver) {
		a.debounce = d
	}
}

// WithAutosaveLogger sets the logger.
func WithAutosaveLogger(logger *slog.Logger) AutosaveOption {
	return func(a *Autosaver) {
		a.logger = logger
	}
}

// WithReason supplies the change reason attached to each write under
// core.ChangeReasonKey. It is called when a state is submitted.
func WithReason(fn func() string) AutosaveOption {
	return func(a *Autosaver) {
		a.reason = fn
	}
}

// NewAutosaver creates an autosaver writing through adapter. It does nothing
// until Attach is called.
func NewAutosaver(adapter *Adapter, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{
		adapter:  adapter,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach subscribes to store. In asynchronous mode it also starts the
// writer. Only Close stops the autosaver: cancelling ctx does not, so states
// dispatched afterwards are still saved. Values carried by ctx reach the
// storage.
func (a *Autosaver) Attach(ctx context.Context, store *core.Store) {
	base := context.WithoutCancel(ctx)
	a.source = store.State

	if a.async {
		runCtx, cancel := context.WithCancel(base)
		a.cancel = cancel
		a.done = make(chan struct{})
		lifecycle.Go(runCtx, a.run, lifecycle.WithErrorHandler(func(err error) {
			if a.logger != nil {
				a.logger.Error("autosave writer failed", "error", err)
			}
		}))
	}

	a.unsubscribe = store.Subscribe(func(next, _ core.AppState) {
		a.Submit(base, next)
	})
}

// Submit hands a state to the autosaver. Once attached, the store's current
// state is saved in place of the one given, since listeners of concurrent
// dispatches may run out of order.
func (a *Autosaver) Submit(ctx context.Context, state core.AppState) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.paused {
		a.held = &state
		a.mu.Unlock()
		return
	}
	a.submitted++
	seq := a.submitted

	p := pendingSave{state: state}
	if a.reason != nil {
		p.reason = a.reason()
	}

	if !a.async {
		a.mu.Unlock()
		a.write(ctx, p, seq)
		return
	}

	a.pending = &p
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Pause holds back saves until Resume. Only the last state submitted while
// paused is kept.
func (a *Autosaver) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = true
}

// Resume ends a pause and submits the state held back, if any.
func (a *Autosaver) Resume(ctx context.Context) {
	a.mu.Lock()
	held := a.held
	a.held = nil
	a.paused = false
	a.mu.Unlock()

	if held != nil {
		a.Submit(ctx, *held)
	}
}

// Flush blocks until every state submitted so far has been written.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	target := a.submitted
	a.mu.Unlock()

	for {
		a.mu.Lock()
		if a.written >= target {
			a.mu.Unlock()
			return nil
		}
		ch := a.progress
		a.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close detaches from the store, flushes pending work and stops the writer.
// A state held back by Pause is saved first.
func (a *Autosaver) Close(ctx context.Context) error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.Resume(ctx)

	err := a.Flush(ctx)

	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
		select {
		case <-a.done:
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
	}
	return err
}

func (a *Autosaver) run(ctx context.Context) error {
	defer close(a.done)
	// A pending state must survive cancellation of the writer.
	defer a.writePending(context.WithoutCancel(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.wake:
		}

		if a.debounce > 0 {
			timer := time.NewTimer(a.debounce)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil
			}
		}

		a.writePending(ctx)
	}
}

func (a *Autosaver) writePending(ctx context.Context) {
	a.mu.Lock()
	p := a.pending
	seq := a.submitted
	a.pending = nil
	a.mu.Unlock()

	if p == nil {
		return
	}
	a.write(ctx, *p, seq)
}

func (a *Autosaver) write(ctx context.Context, p pendingSave, seq uint64) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	state := p.state
	if a.source != nil {
		state = a.source()
	}
	a.adapter.Save(withReason(ctx, p.reason), state)
	a.markWritten(seq)
}

func withReason(ctx context.Context, reason string) context.Context {
	if reason == "" {
		return ctx
	}
	return context.WithValue(ctx, core.ChangeReasonKey, reason)
}

func (a *Autosaver) markWritten(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq > a.written {
		a.written = seq
	}
	close(a.progress)
	a.progress = make(chan struct{})
}

// AutosaverState exposes internal state for observability.
type AutosaverState struct {
	Async     bool          `json:"async"`
	Debounce  time.Duration `json:"debounce"`
	Pending   bool          `json:"pending"`
	Paused    bool          `json:"paused"`
	Submitted uint64        `json:"submitted"`
	Written   uint64        `json:"written"`
}

// State implements introspection.Introspectable.
func (a *Autosaver) State() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AutosaverState{
		Async:     a.async,
		Debounce:  a.debounce,
		Pending:   a.pending != nil,
		Paused:    a.paused,
		Submitted: a.submitted,
		Written:   a.written,
	}
}

// ComponentType implements introspection.Component.
func (a *Autosaver) ComponentType() string {
	return "autosaver"
}

var _ introspection.Introspectable = (*Autosaver)(nil)
var _ introspection.Component = (*Autosaver)(nil)
