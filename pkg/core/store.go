package core

import (
	"log/slog"
	"sync"
	"time"
)

// Listener is notified after a dispatch changed the state.
type Listener func(next, prev AppState)

// Store owns the application state. It is the only writer; every change goes
// through Dispatch and the Reducer.
type Store struct {
	mu        sync.RWMutex
	state     AppState
	reducer   Reducer
	logger    *slog.Logger
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
	version   uint64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for note timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.reducer.Now = now
	}
}

// WithIDGenerator overrides the generator of note identifiers.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		s.reducer.NewID = gen
	}
}

// WithInitialState seeds the store. The active reference is reconciled.
func WithInitialState(state AppState) StoreOption {
	return func(s *Store) {
		s.state = reconcileActive(state)
	}
}

// WithStoreLogger sets the logger used to trace dispatches at debug level.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store holding DefaultState.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state:     DefaultState(),
		reducer:   NewReducer(),
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state. The value must be treated as read-only.
func (s *Store) State() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version counts the transitions that changed the state.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Dispatch runs the reducer over the current state and a, publishes the
// result and notifies subscribers when something changed.
// Listeners run outside the lock, so they may dispatch themselves.
func (s *Store) Dispatch(a Action) {
	if a == nil {
		return
	}

	s.mu.Lock()
	prev := s.state
	next := s.reducer.Reduce(prev, a)
	changed := !Equal(prev, next)
	if changed {
		s.state = next
		s.version++
	}
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("dispatch", "action", a.Type(), "changed", changed, "notes", len(next.Notes))
	}

	if !changed {
		return
	}
	for _, l := range listeners {
		s.notify(l, next, prev)
	}
}

// notify isolates the store from a failing listener.
func (s *Store) notify(l Listener, next, prev AppState) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("listener panic", "error", r)
		}
	}()
	l(next, prev)
}

// Subscribe registers l for state changes and returns a function that
// removes it. Calling the returned function more than once is harmless.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// snapshotListeners must be called with s.mu held.
func (s *Store) snapshotListeners() []Listener {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.listeners[id])
	}
	return out
}

// Diff describes the transition from prev to next as events.
func Diff(prev, next AppState) []Event {
	now := time.Now().Unix()
	var events []Event

	before := make(map[string]*Note, len(prev.Notes))
	for _, n := range prev.Notes {
		before[n.ID] = n
	}
	for _, n := range next.Notes {
		old, ok := before[n.ID]
		switch {
		case !ok:
			events = append(events, Event{Type: EventCreate, ID: n.ID, Timestamp: now})
		case old != n:
			events = append(events, Event{Type: EventModify, ID: n.ID, Timestamp: now})
		}
		delete(before, n.ID)
	}
	for _, n := range prev.Notes {
		if _, gone := before[n.ID]; gone {
			events = append(events, Event{Type: EventDelete, ID: n.ID, Timestamp: now})
		}
	}

	if prev.ActiveNoteID != next.ActiveNoteID ||
		prev.Theme != next.Theme ||
		prev.ZenMode != next.ZenMode ||
		prev.SoundType != next.SoundType ||
		prev.PreviewVisible != next.PreviewVisible ||
		prev.EditorHeight != next.EditorHeight ||
		prev.PreviewHeight != next.PreviewHeight {
		events = append(events, Event{Type: EventSettings, Timestamp: now})
	}

	return events
}
