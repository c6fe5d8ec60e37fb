package core

import "errors"

// Common errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrReadOnly      = errors.New("storage is in read-only mode")
	ErrNoteNotFound  = errors.New("note not found")
	ErrLastNote      = errors.New("cannot delete the last note")
	ErrUnknownAction = errors.New("unknown action")
)
