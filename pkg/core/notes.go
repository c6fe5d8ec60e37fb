package core

import (
	"fmt"
	"time"
)

// Note lifecycle rules. Every function here is pure: it receives the previous
// state and returns the next one without touching its input.

func createNote(s AppState, a CreateNote, id string, now time.Time) AppState {
	n := &Note{
		ID:        id,
		Title:     a.Title,
		Content:   a.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	notes := make([]*Note, 0, len(s.Notes)+1)
	notes = append(notes, s.Notes...)
	notes = append(notes, n)

	s.Notes = notes
	s.ActiveNoteID = n.ID
	return s
}

func updateNote(s AppState, a UpdateNote, now time.Time) AppState {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s
	}

	prev := s.Notes[i]
	next := *prev
	if a.Title != nil {
		next.Title = *a.Title
	}
	if a.Content != nil {
		next.Content = *a.Content
	}
	next.UpdatedAt = laterOf(now, prev.UpdatedAt, prev.CreatedAt)

	notes := make([]*Note, len(s.Notes))
	copy(notes, s.Notes)
	notes[i] = &next

	s.Notes = notes
	return s
}

func deleteNote(s AppState, a DeleteNote) AppState {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s
	}

	notes := make([]*Note, 0, len(s.Notes)-1)
	notes = append(notes, s.Notes[:i]...)
	notes = append(notes, s.Notes[i+1:]...)

	s.Notes = notes
	if s.ActiveNoteID == a.ID {
		s.ActiveNoteID = firstID(notes)
	}
	return s
}

// setNotes replaces the collection. Nil entries, notes without id and
// repeated ids are dropped; notes with inconsistent timestamps are replaced
// by a repaired copy. Valid notes keep their pointer.
func setNotes(s AppState, a SetNotes) AppState {
	notes := make([]*Note, 0, len(a.Notes))
	seen := make(map[string]bool, len(a.Notes))
	for _, n := range a.Notes {
		if n == nil || n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		notes = append(notes, repairTimestamps(n))
	}
	s.Notes = notes
	return s
}

// repairTimestamps returns n, or a copy of it in which a missing CreatedAt
// takes UpdatedAt and UpdatedAt is never before CreatedAt.
func repairTimestamps(n *Note) *Note {
	if !n.CreatedAt.IsZero() && !n.UpdatedAt.Before(n.CreatedAt) {
		return n
	}
	fixed := *n
	if fixed.CreatedAt.IsZero() {
		fixed.CreatedAt = fixed.UpdatedAt
	}
	if fixed.UpdatedAt.Before(fixed.CreatedAt) {
		fixed.UpdatedAt = fixed.CreatedAt
	}
	if fixed == *n {
		return n
	}
	return &fixed
}

func setActiveNote(s AppState, a SetActiveNote) AppState {
	s.ActiveNoteID = a.ID
	return s
}

// reconcileActive restores the invariant that ActiveNoteID is empty or the
// id of a note in the collection. A dangling id is replaced with the first
// note, or cleared when there is none.
func reconcileActive(s AppState) AppState {
	if s.ActiveNoteID == "" {
		return s
	}
	if s.indexOf(s.ActiveNoteID) >= 0 {
		return s
	}
	s.ActiveNoteID = firstID(s.Notes)
	return s
}

// CheckDelete reports whether deleting id would be accepted by a caller that
// wants to keep at least one note around. The reducer itself allows deleting
// the last note; this check backs confirmation gates in front ends.
func CheckDelete(s AppState, id string) error {
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	if len(s.Notes) == 1 {
		return ErrLastNote
	}
	return nil
}

func firstID(notes []*Note) string {
	if len(notes) == 0 {
		return ""
	}
	return notes[0].ID
}

func laterOf(t time.Time, others ...time.Time) time.Time {
	for _, o := range others {
		if o.After(t) {
			t = o
		}
	}
	return t
}
