// Package core holds the application state of markwrite: the domain model,
// the actions that mutate it, the reducer and the store that owns it.
package core

import (
	"fmt"
	"time"
)

// Theme is the color scheme of the session.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// ZenMode toggles the distraction-free layout.
type ZenMode string

const (
	ZenOff ZenMode = "off"
	ZenOn  ZenMode = "on"
)

// Valid reports whether z is a known zen mode.
func (z ZenMode) Valid() bool {
	return z == ZenOff || z == ZenOn
}

// SoundType selects the ambience played by the UI. The core only stores it.
type SoundType string

const (
	SoundNone   SoundType = "none"
	SoundRain   SoundType = "rain"
	SoundOcean  SoundType = "ocean"
	SoundForest SoundType = "forest"
)

// Sounds lists every valid sound selection.
var Sounds = []SoundType{SoundNone, SoundRain, SoundOcean, SoundForest}

// Valid reports whether s is a known sound selection.
func (s SoundType) Valid() bool {
	for _, v := range Sounds {
		if s == v {
			return true
		}
	}
	return false
}

// Default layout split, in percent.
const (
	DefaultEditorHeight  = 50.0
	DefaultPreviewHeight = 50.0
)

// Note is a single document.
// ID and CreatedAt never change once the note exists.
type Note struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppState is the root aggregate owned by the Store.
//
// Values handed out by the Store are immutable: a transition builds a new
// AppState and a new Notes slice whenever the collection changes, while
// untouched notes keep their pointer. Callers must not modify them.
type AppState struct {
	Notes []*Note
	// ActiveNoteID is empty when no note is selected.
	ActiveNoteID   string
	Theme          Theme
	ZenMode        ZenMode
	SoundType      SoundType
	PreviewVisible bool
	EditorHeight   float64
	PreviewHeight  float64
}

// DefaultState returns the state of a fresh session with no notes.
func DefaultState() AppState {
	return AppState{
		Notes:          []*Note{},
		Theme:          ThemeLight,
		ZenMode:        ZenOff,
		SoundType:      SoundNone,
		PreviewVisible: true,
		EditorHeight:   DefaultEditorHeight,
		PreviewHeight:  DefaultPreviewHeight,
	}
}

// Find returns the note with the given id.
func (s AppState) Find(id string) (*Note, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Notes[i], true
	}
	return nil, false
}

// ActiveNote returns the selected note, if any.
func (s AppState) ActiveNote() (*Note, bool) {
	if s.ActiveNoteID == "" {
		return nil, false
	}
	return s.Find(s.ActiveNoteID)
}

func (s AppState) indexOf(id string) int {
	for i, n := range s.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// EventType represents the kind of change observed in the state.
type EventType string

const (
	EventCreate   EventType = "CREATE"
	EventModify   EventType = "MODIFY"
	EventDelete   EventType = "DELETE"
	EventSettings EventType = "SETTINGS"
	// EventExternal is emitted by storage adapters when the persisted
	// snapshot was changed by another process.
	EventExternal EventType = "EXTERNAL"
)

// Event represents a change in the state or in its persisted snapshot.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	if e.ID == "" {
		return string(e.Type)
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
