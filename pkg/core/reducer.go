package core

import (
	"time"

	"github.com/google/uuid"
)

// maxIDAttempts bounds retries when the id generator returns an id already
// in use. With UUIDv4 a retry never happens in practice.
const maxIDAttempts = 8

// Reducer is the transition function of the application state.
// Time and identifiers are injected so transitions stay deterministic in tests.
type Reducer struct {
	Now   func() time.Time
	NewID func() string
}

// NewReducer returns a Reducer using the wall clock and random UUIDs.
func NewReducer() Reducer {
	return Reducer{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// Reduce applies one action to s and returns the next state.
// It is total: unknown actions return s unchanged, and no input makes it
// fail. The active note reference is reconciled after every transition.
func (r Reducer) Reduce(s AppState, a Action) AppState {
	var next AppState

	switch a := a.(type) {
	case SetNotes:
		next = setNotes(s, a)
	case SetActiveNote:
		next = setActiveNote(s, a)
	case CreateNote:
		next = createNote(s, a, r.uniqueID(s), r.now())
	case UpdateNote:
		next = updateNote(s, a, r.now())
	case DeleteNote:
		next = deleteNote(s, a)
	case SetTheme:
		next = setTheme(s, a)
	case SetZenMode:
		next = setZenMode(s, a)
	case SetSound:
		next = setSound(s, a)
	case TogglePreview:
		next = togglePreview(s, a)
	case SetEditorHeight:
		next = setEditorHeight(s, a)
	case SetPreviewHeight:
		next = setPreviewHeight(s, a)
	default:
		return s
	}

	return reconcileActive(next)
}

func (r Reducer) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

func (r Reducer) uniqueID(s AppState) string {
	gen := r.NewID
	if gen == nil {
		gen = uuid.NewString
	}

	id := gen()
	for i := 1; i < maxIDAttempts && (id == "" || s.indexOf(id) >= 0); i++ {
		id = gen()
	}
	if id == "" || s.indexOf(id) >= 0 {
		// The injected generator keeps colliding; fall back to a random UUID.
		id = uuid.NewString()
	}
	return id
}

// Equal reports whether a and b are the same state value: same settings,
// same active note and the same note pointers in the same order.
func Equal(a, b AppState) bool {
	if a.ActiveNoteID != b.ActiveNoteID ||
		a.Theme != b.Theme ||
		a.ZenMode != b.ZenMode ||
		a.SoundType != b.SoundType ||
		a.PreviewVisible != b.PreviewVisible ||
		a.EditorHeight != b.EditorHeight ||
		a.PreviewHeight != b.PreviewHeight {
		return false
	}
	if len(a.Notes) != len(b.Notes) {
		return false
	}
	for i := range a.Notes {
		if a.Notes[i] != b.Notes[i] {
			return false
		}
	}
	return true
}
