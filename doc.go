// Package markwrite is the composition root of MarkWrite, a note-taking
// engine.
//
// A Workspace holds the whole session in one immutable AppState: the notes,
// the active note and the editor settings (theme, zen mode, ambient sound,
// preview visibility and pane heights). Changes are Actions dispatched to a
// Store; a pure reducer computes the next state and subscribers are told
// about it. One of them, the autosaver, writes the state back as a single
// versioned snapshot record.
//
// Storage is pluggable through core.Storage:
//
//   - fs: one file per record, atomic writes, optional git history.
//   - sqlite: a key-value table in markwrite.db.
//   - memory: nothing survives the process.
//
// Usage:
//
//	ws, err := markwrite.New(ctx, "~/notes", markwrite.WithVersioning(true))
//	if err != nil {
//		return err
//	}
//	defer ws.Close(ctx)
//
//	ws.Dispatch(core.CreateNote{Title: "Ideas", Content: "# Ideas"})
package markwrite
