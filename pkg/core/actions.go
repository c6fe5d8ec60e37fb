package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType names a state transition.
type ActionType string

const (
	ActionSetNotes         ActionType = "SET_NOTES"
	ActionSetActiveNote    ActionType = "SET_ACTIVE_NOTE"
	ActionCreateNote       ActionType = "CREATE_NOTE"
	ActionUpdateNote       ActionType = "UPDATE_NOTE"
	ActionDeleteNote       ActionType = "DELETE_NOTE"
	ActionSetTheme         ActionType = "SET_THEME"
	ActionSetZenMode       ActionType = "SET_ZEN_MODE"
	ActionSetSound         ActionType = "SET_SOUND"
	ActionTogglePreview    ActionType = "TOGGLE_PREVIEW"
	ActionSetEditorHeight  ActionType = "SET_EDITOR_HEIGHT"
	ActionSetPreviewHeight ActionType = "SET_PREVIEW_HEIGHT"
)

// Action is a request to change the state. Actions are plain values; the
// reducer gives them meaning.
type Action interface {
	Type() ActionType
}

// SetNotes replaces the whole collection.
type SetNotes struct {
	Notes []*Note
}

// SetActiveNote selects a note. An empty ID clears the selection.
type SetActiveNote struct {
	ID string
}

// CreateNote appends a new note and selects it.
type CreateNote struct {
	Title   string
	Content string
}

// UpdateNote changes the fields that are non-nil.
type UpdateNote struct {
	ID      string
	Title   *string
	Content *string
}

// DeleteNote removes a note.
type DeleteNote struct {
	ID string
}

type SetTheme struct {
	Theme Theme
}

type SetZenMode struct {
	Mode ZenMode
}

type SetSound struct {
	Sound SoundType
}

// TogglePreview flips the preview pane, or forces it when Visible is set.
type TogglePreview struct {
	Visible *bool
}

type SetEditorHeight struct {
	Percent float64
}

type SetPreviewHeight struct {
	Percent float64
}

func (SetNotes) Type() ActionType         { return ActionSetNotes }
func (SetActiveNote) Type() ActionType    { return ActionSetActiveNote }
func (CreateNote) Type() ActionType       { return ActionCreateNote }
func (UpdateNote) Type() ActionType       { return ActionUpdateNote }
func (DeleteNote) Type() ActionType       { return ActionDeleteNote }
func (SetTheme) Type() ActionType         { return ActionSetTheme }
func (SetZenMode) Type() ActionType       { return ActionSetZenMode }
func (SetSound) Type() ActionType         { return ActionSetSound }
func (TogglePreview) Type() ActionType    { return ActionTogglePreview }
func (SetEditorHeight) Type() ActionType  { return ActionSetEditorHeight }
func (SetPreviewHeight) Type() ActionType { return ActionSetPreviewHeight }

// StringPtr and BoolPtr build the optional fields of UpdateNote and TogglePreview.
func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }

// envelope is the wire shape of an action: {"type": "...", "payload": ...}.
type envelope struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wireNote struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// DecodeAction parses a JSON action envelope.
//
// Payload shapes follow the action surface: DELETE_NOTE and SET_ACTIVE_NOTE
// take a bare id string (or null), the setters take a bare value, and
// CREATE_NOTE / UPDATE_NOTE take an object.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid action: %w", err)
	}

	payload := env.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	decode := func(v any) error {
		if err := json.Unmarshal(payload, v); err != nil {
			return fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case ActionSetNotes:
		var raw []wireNote
		if err := decode(&raw); err != nil {
			return nil, err
		}
		notes := make([]*Note, 0, len(raw))
		for _, w := range raw {
			n, err := w.note()
			if err != nil {
				return nil, err
			}
			notes = append(notes, n)
		}
		return SetNotes{Notes: notes}, nil
	case ActionSetActiveNote:
		var id *string
		if err := decode(&id); err != nil {
			return nil, err
		}
		if id == nil {
			return SetActiveNote{}, nil
		}
		return SetActiveNote{ID: *id}, nil
	case ActionCreateNote:
		var p struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := decode(&p); err != nil {
			return nil, err
		}
		return CreateNote{Title: p.Title, Content: p.Content}, nil
	case ActionUpdateNote:
		var p struct {
			ID      string  `json:"id"`
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := decode(&p); err != nil {
			return nil, err
		}
		return UpdateNote{ID: p.ID, Title: p.Title, Content: p.Content}, nil
	case ActionDeleteNote:
		var id string
		if err := decode(&id); err != nil {
			return nil, err
		}
		return DeleteNote{ID: id}, nil
	case ActionSetTheme:
		var v Theme
		if err := decode(&v); err != nil {
			return nil, err
		}
		return SetTheme{Theme: v}, nil
	case ActionSetZenMode:
		var v ZenMode
		if err := decode(&v); err != nil {
			return nil, err
		}
		return SetZenMode{Mode: v}, nil
	case ActionSetSound:
		var v SoundType
		if err := decode(&v); err != nil {
			return nil, err
		}
		return SetSound{Sound: v}, nil
	case ActionTogglePreview:
		var v *bool
		if err := decode(&v); err != nil {
			return nil, err
		}
		return TogglePreview{Visible: v}, nil
	case ActionSetEditorHeight:
		var v float64
		if err := decode(&v); err != nil {
			return nil, err
		}
		return SetEditorHeight{Percent: v}, nil
	case ActionSetPreviewHeight:
		var v float64
		if err := decode(&v); err != nil {
			return nil, err
		}
		return SetPreviewHeight{Percent: v}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
}

func (w wireNote) note() (*Note, error) {
	n := &Note{ID: w.ID, Title: w.Title, Content: w.Content}
	var err error
	if w.CreatedAt != "" {
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, w.CreatedAt); err != nil {
			return nil, fmt.Errorf("note %s: invalid createdAt: %w", w.ID, err)
		}
	}
	if w.UpdatedAt != "" {
		if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("note %s: invalid updatedAt: %w", w.ID, err)
		}
	}
	if n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}
	return n, nil
}
