package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite/pkg/core"
	"github.com/aretw0/markwrite/pkg/text"
)

var (
	noteTitle   string
	noteContent string
	noteFile    string
	inferTitle  bool
	listJSON    bool
	listMatch   string
	showMeta    bool
	deleteForce bool
)

var errAmbiguous = errors.New("ambiguous note reference")

// findNote resolves a full id or a unique id prefix. An empty ref selects
// the active note.
func findNote(state core.AppState, ref string) (*core.Note, error) {
	if ref == "" {
		if n, ok := state.ActiveNote(); ok {
			return n, nil
		}
		return nil, fmt.Errorf("%w: no active note", core.ErrNoteNotFound)
	}
	if n, ok := state.Find(ref); ok {
		return n, nil
	}

	var match *core.Note
	for _, n := range state.Notes {
		if strings.HasPrefix(n.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", errAmbiguous, ref)
			}
			match = n
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNoteNotFound, ref)
	}
	return match, nil
}

// filterNotes keeps the notes whose title matches the doublestar pattern.
func filterNotes(notes []*core.Note, pattern string) ([]*core.Note, error) {
	if pattern == "" {
		return notes, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %s", pattern)
	}
	var out []*core.Note
	for _, n := range notes {
		if ok, _ := doublestar.Match(pattern, n.Title); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// readBody returns the --content value, or the --file contents ("-" reads
// stdin). ok is false when neither flag was given.
func readBody(cmd *cobra.Command) (string, bool, error) {
	switch {
	case cmd.Flags().Changed("file"):
		var (
			data []byte
			err  error
		)
		if noteFile == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(noteFile)
		}
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case cmd.Flags().Changed("content"):
		return noteContent, true, nil
	}
	return "", false, nil
}

type noteView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Content   string `json:"content,omitempty"`
}

func viewOf(n *core.Note, active string) noteView {
	return noteView{
		ID:        n.ID,
		Title:     n.Title,
		Active:    n.ID == active,
		CreatedAt: text.FormatDate(n.CreatedAt, nil),
		UpdatedAt: text.FormatDate(n.UpdatedAt, nil),
	}
}

var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a note and make it active",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		body, _, err := readBody(cmd)
		if err != nil {
			fatal("Failed to read content", err)
		}

		title := noteTitle
		if len(args) == 1 {
			title = args[0]
		}
		if title == "" && (inferTitle || body != "") {
			title = text.InferTitle(body)
		}
		if title == "" {
			title = "Untitled"
		}

		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		ws.Dispatch(core.CreateNote{Title: title, Content: body})
		fmt.Println(ws.State().ActiveNoteID)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, the active one marked with *",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		state := ws.State()
		notes, err := filterNotes(state.Notes, listMatch)
		if err != nil {
			fatal("Failed to filter notes", err)
		}

		views := make([]noteView, 0, len(notes))
		for _, n := range notes {
			views = append(views, viewOf(n, state.ActiveNoteID))
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(views); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, v := range views {
			mark := " "
			if v.Active {
				mark = "*"
			}
			fmt.Printf("%s %s  %s  (%s)\n", mark, v.ID, v.Title, v.UpdatedAt)
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		n, err := findNote(ws.State(), argOrEmpty(args))
		if err != nil {
			fatal("Failed to find note", err)
		}
		if showMeta {
			fmt.Printf("# %s\n# id: %s\n# updated: %s\n\n", n.Title, n.ID, text.FormatDate(n.UpdatedAt, nil))
		}
		fmt.Print(n.Content)
		if !strings.HasSuffix(n.Content, "\n") {
			fmt.Println()
		}
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the title or content of a note",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		body, hasBody, err := readBody(cmd)
		if err != nil {
			fatal("Failed to read content", err)
		}

		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		n, err := findNote(ws.State(), argOrEmpty(args))
		if err != nil {
			fatal("Failed to find note", err)
		}

		update := core.UpdateNote{ID: n.ID}
		if hasBody {
			update.Content = core.StringPtr(body)
		}
		switch {
		case cmd.Flags().Changed("title"):
			update.Title = core.StringPtr(noteTitle)
		case inferTitle:
			content := n.Content
			if hasBody {
				content = body
			}
			if t := text.InferTitle(content); t != "" {
				update.Title = core.StringPtr(t)
			}
		}
		if update.Title == nil && update.Content == nil {
			fatal("Nothing to change", errors.New("use --title, --content, --file or --infer-title"))
		}

		ws.Dispatch(update)
		fmt.Printf("Note updated: %s\n", n.ID)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Long:  `Delete removes a note. Deleting the only note left requires --force.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		state := ws.State()
		n, err := findNote(state, argOrEmpty(args))
		if err != nil {
			fatal("Failed to find note", err)
		}
		if err := core.CheckDelete(state, n.ID); err != nil {
			if !errors.Is(err, core.ErrLastNote) || !deleteForce {
				fatal("Refusing to delete", err)
			}
		}

		ws.Dispatch(core.DeleteNote{ID: n.ID})
		fmt.Printf("Note deleted: %s\n", n.ID)
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Make a note the active one",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		n, err := findNote(ws.State(), args[0])
		if err != nil {
			fatal("Failed to find note", err)
		}
		ws.Dispatch(core.SetActiveNote{ID: n.ID})
		fmt.Printf("Active note: %s (%s)\n", n.ID, n.Title)
	},
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	for _, c := range []*cobra.Command{newCmd, editCmd} {
		c.Flags().StringVar(&noteTitle, "title", "", "Note title")
		c.Flags().StringVar(&noteContent, "content", "", "Note content")
		c.Flags().StringVarP(&noteFile, "file", "f", "", "Read content from a file (- for stdin)")
		c.Flags().BoolVar(&inferTitle, "infer-title", false, "Derive the title from the content")
		c.MarkFlagsMutuallyExclusive("content", "file")
	}
	editCmd.MarkFlagsMutuallyExclusive("title", "infer-title")

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Only titles matching a glob pattern")
	showCmd.Flags().BoolVar(&showMeta, "meta", false, "Print title, id and date before the content")
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Allow deleting the last note")

	rootCmd.AddCommand(newCmd, listCmd, showCmd, editCmd, deleteCmd, selectCmd)
}
