package core

import (
	"context"
	"log/slog"
)

const (
	WelcomeTitle   = "Welcome to MarkWrite"
	WelcomeContent = `# Welcome to MarkWrite!

This is a distraction-free Markdown editor with live preview.

## Features

- **Split-screen** layout with live preview
- **Markdown toolbar** for formatting
- **Live stats** for word and character count
- **Local storage** for saving your notes
- **Theme toggle** for light and dark mode
- **Zen mode** for distraction-free writing

Enjoy writing!`
)

// BootstrapResult reports what the sequencer did.
type BootstrapResult struct {
	Restored bool
	Notes    int
}

// Bootstrap restores the last persisted state into store, or seeds it with
// the welcome note when nothing usable was persisted. It must run once,
// before any other action is dispatched, and it never fails: a loader that
// panics is treated like a loader that found nothing.
func Bootstrap(ctx context.Context, store *Store, loader Loader, logger *slog.Logger) BootstrapResult {
	restored, ok := safeLoad(ctx, loader, logger)
	if !ok {
		store.Dispatch(CreateNote{Title: WelcomeTitle, Content: WelcomeContent})
		if logger != nil {
			logger.Info("no saved state, created welcome note")
		}
		return BootstrapResult{Notes: len(store.State().Notes)}
	}

	Restore(store, restored)

	res := BootstrapResult{Restored: true, Notes: len(store.State().Notes)}
	if logger != nil {
		logger.Info("restored saved state", "notes", res.Notes, "active", store.State().ActiveNoteID)
	}
	return res
}

// Restore replaces the notes and settings held by store with those of
// restored, one action at a time. Subscribers see every intermediate state;
// an autosaver should be paused around it.
func Restore(store *Store, restored AppState) {
	store.Dispatch(SetNotes{Notes: restored.Notes})
	// The reducer clamps a stale id to the first restored note.
	store.Dispatch(SetActiveNote{ID: restored.ActiveNoteID})
	store.Dispatch(SetTheme{Theme: restored.Theme})
	// Zen before sound: leaving zen mode resets the sound selection.
	store.Dispatch(SetZenMode{Mode: restored.ZenMode})
	store.Dispatch(SetSound{Sound: restored.SoundType})
	store.Dispatch(TogglePreview{Visible: BoolPtr(restored.PreviewVisible)})
	store.Dispatch(SetEditorHeight{Percent: restored.EditorHeight})
	store.Dispatch(SetPreviewHeight{Percent: restored.PreviewHeight})
}

func safeLoad(ctx context.Context, loader Loader, logger *slog.Logger) (state AppState, ok bool) {
	if loader == nil {
		return AppState{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Warn("loading saved state panicked", "error", r)
			}
			state, ok = AppState{}, false
		}
	}()
	return loader.Load(ctx)
}
