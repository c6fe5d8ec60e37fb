package markwrite_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/markwrite"
	"github.com/aretw0/markwrite/pkg/core"
)

// Example_basic opens a workspace, writes a note and opens the workspace
// again to find it restored.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "markwrite-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()

	ws, err := markwrite.New(ctx, tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("restored:", ws.Bootstrap().Restored)

	ws.Dispatch(core.CreateNote{Title: "Ideas", Content: "# Ideas"})
	ws.Dispatch(core.SetTheme{Theme: core.ThemeDark})
	if err := ws.Close(ctx); err != nil {
		log.Fatal(err)
	}

	ws, err = markwrite.New(ctx, tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer ws.Close(ctx)

	state := ws.State()
	active, _ := state.ActiveNote()
	fmt.Println("restored:", ws.Bootstrap().Restored)
	fmt.Println("notes:", len(state.Notes))
	fmt.Println("active:", active.Title)
	fmt.Println("theme:", state.Theme)
	// Output:
	// restored: false
	// restored: true
	// notes: 2
	// active: Ideas
	// theme: dark
}
