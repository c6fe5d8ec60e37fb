// Package snapshot encodes the application state as a single versioned
// record and migrates records written by older versions.
//
// Version history:
//
//	1  legacy record without a version field: notes, activeNoteId, theme,
//	   zenMode, soundType. The sound selection allowed "cafe".
//	2  adds version, previewVisible, editorHeight and previewHeight.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"github.com/aretw0/markwrite/pkg/core"
)

// CurrentVersion is the version written by Encode.
const CurrentVersion = 2

var (
	ErrMalformed          = errors.New("malformed snapshot")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Record is the persisted shape of core.AppState.
// Pointer fields are absent in older records and get their defaults on decode.
type Record struct {
	Version        int          `json:"version" yaml:"version"`
	Notes          []NoteRecord `json:"notes" yaml:"notes"`
	ActiveNoteID   *string      `json:"activeNoteId" yaml:"activeNoteId"`
	Theme          string       `json:"theme" yaml:"theme" default:"light"`
	ZenMode        string       `json:"zenMode" yaml:"zenMode" default:"off"`
	SoundType      string       `json:"soundType" yaml:"soundType" default:"none"`
	PreviewVisible *bool        `json:"previewVisible,omitempty" yaml:"previewVisible,omitempty" default:"true"`
	EditorHeight   *float64     `json:"editorHeight,omitempty" yaml:"editorHeight,omitempty" default:"50"`
	PreviewHeight  *float64     `json:"previewHeight,omitempty" yaml:"previewHeight,omitempty" default:"50"`
}

// NoteRecord is the persisted shape of core.Note. Timestamps are ISO-8601.
type NoteRecord struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// migrations upgrade a record from the keyed version to the next one.
var migrations = map[int]func(*Record){
	1: migrateV1,
}

func migrateV1(r *Record) {
	if r.SoundType == "cafe" {
		r.SoundType = string(core.SoundNone)
	}
	r.Version = 2
}

// Codec converts between core.AppState and serialized records.
type Codec struct {
	Serializer Serializer
}

// NewCodec returns a codec using s, or JSON when s is nil.
func NewCodec(s Serializer) Codec {
	if s == nil {
		s = JSONSerializer{}
	}
	return Codec{Serializer: s}
}

// Encode serializes the full state as a current-version record.
func (c Codec) Encode(state core.AppState) ([]byte, error) {
	data, err := c.serializer().Marshal(FromState(state))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses data, migrates it to the current version and returns the
// state it describes.
func (c Codec) Decode(data []byte) (core.AppState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return core.AppState{}, fmt.Errorf("%w: empty record", ErrMalformed)
	}

	var r Record
	if err := c.serializer().Unmarshal(trimmed, &r); err != nil {
		return core.AppState{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Notes == nil {
		return core.AppState{}, fmt.Errorf("%w: missing notes", ErrMalformed)
	}

	if err := Migrate(&r); err != nil {
		return core.AppState{}, err
	}
	return r.State(), nil
}

func (c Codec) serializer() Serializer {
	if c.Serializer == nil {
		return JSONSerializer{}
	}
	return c.Serializer
}

// Migrate upgrades r in place to CurrentVersion and fills missing fields.
func Migrate(r *Record) error {
	if r.Version == 0 {
		r.Version = 1
	}
	if r.Version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	for r.Version < CurrentVersion {
		step, ok := migrations[r.Version]
		if !ok {
			return fmt.Errorf("%w: no migration from %d", ErrUnsupportedVersion, r.Version)
		}
		step(r)
	}
	if err := defaults.Set(r); err != nil {
		return fmt.Errorf("apply snapshot defaults: %w", err)
	}
	return nil
}

// FromState builds the current-version record of state.
func FromState(state core.AppState) Record {
	notes := make([]NoteRecord, 0, len(state.Notes))
	for _, n := range state.Notes {
		notes = append(notes, NoteRecord{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}

	var active *string
	if state.ActiveNoteID != "" {
		id := state.ActiveNoteID
		active = &id
	}
	preview := state.PreviewVisible
	editorHeight := state.EditorHeight
	previewHeight := state.PreviewHeight

	return Record{
		Version:        CurrentVersion,
		Notes:          notes,
		ActiveNoteID:   active,
		Theme:          string(state.Theme),
		ZenMode:        string(state.ZenMode),
		SoundType:      string(state.SoundType),
		PreviewVisible: &preview,
		EditorHeight:   &editorHeight,
		PreviewHeight:  &previewHeight,
	}
}

// State converts a migrated record back into a core.AppState.
// Notes without id and repeated ids are dropped, timestamps are repaired so
// UpdatedAt never precedes CreatedAt, and unknown enum values fall back to
// their defaults.
func (r Record) State() core.AppState {
	state := core.DefaultState()

	seen := make(map[string]bool, len(r.Notes))
	for _, nr := range r.Notes {
		if nr.ID == "" || seen[nr.ID] {
			continue
		}
		seen[nr.ID] = true

		n := &core.Note{
			ID:        nr.ID,
			Title:     nr.Title,
			Content:   nr.Content,
			CreatedAt: nr.CreatedAt,
			UpdatedAt: nr.UpdatedAt,
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = n.UpdatedAt
		}
		if n.UpdatedAt.Before(n.CreatedAt) {
			n.UpdatedAt = n.CreatedAt
		}
		state.Notes = append(state.Notes, n)
	}

	if r.ActiveNoteID != nil {
		state.ActiveNoteID = *r.ActiveNoteID
	}
	if t := core.Theme(r.Theme); t.Valid() {
		state.Theme = t
	}
	if z := core.ZenMode(r.ZenMode); z.Valid() {
		state.ZenMode = z
	}
	if s := core.SoundType(r.SoundType); s.Valid() {
		state.SoundType = s
	}
	if r.PreviewVisible != nil {
		state.PreviewVisible = *r.PreviewVisible
	}
	if r.EditorHeight != nil {
		state.EditorHeight = *r.EditorHeight
	}
	if r.PreviewHeight != nil {
		state.PreviewHeight = *r.PreviewHeight
	}
	return state
}
