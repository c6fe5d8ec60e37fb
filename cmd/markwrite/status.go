package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite"
	"github.com/aretw0/markwrite/pkg/adapters/fs"
	"github.com/aretw0/markwrite/pkg/persist"
)

var statusTree bool

// statusNode is the shape rendered by introspection.TreeDiagram.
// Status must match a class of introspection.DefaultStyles().
type statusNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []statusNode
}

func buildStatusTree(ws *markwrite.Workspace) statusNode {
	root := statusNode{
		Name:   "Workspace",
		Status: "running",
		Metadata: map[string]string{
			"type":  "container",
			"notes": fmt.Sprintf("%d", len(ws.State().Notes)),
		},
	}

	for _, c := range ws.Components() {
		node := statusNode{Name: c.ComponentType(), Status: "running", Metadata: map[string]string{"type": "process"}}

		i, ok := c.(introspection.Introspectable)
		if !ok {
			root.Children = append(root.Children, node)
			continue
		}
		switch st := i.State().(type) {
		case persist.AdapterState:
			node.Metadata["key"] = st.Key
			node.Metadata["saves"] = fmt.Sprintf("%d", st.Saves)
			if st.Failures > 0 {
				node.Status = "failed"
			}
		case persist.AutosaverState:
			node.Metadata["type"] = "goroutine"
			node.Metadata["written"] = fmt.Sprintf("%d/%d", st.Written, st.Submitted)
			if !st.Async {
				node.Status = "suspended"
			}
		case fs.RepositoryState:
			node.Metadata["path"] = st.Path
			node.Metadata["writes"] = fmt.Sprintf("%d", st.Writes)
			watcher := statusNode{Name: "watcher", Status: "suspended", Metadata: map[string]string{"type": "goroutine"}}
			if st.WatcherActive {
				watcher.Status = "running"
			}
			node.Children = append(node.Children, watcher)
			if st.Versioning {
				node.Children = append(node.Children, statusNode{
					Name:     "git",
					Status:   "running",
					Metadata: map[string]string{"type": "container", "commits": fmt.Sprintf("%d", st.Commits)},
				})
			}
		}
		root.Children = append(root.Children, node)
	}
	return root
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the storage and persistence components",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		if statusTree {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "workspace"
			config.SecondaryLabel = "Workspace Topology"
			fmt.Println(introspection.TreeDiagram(buildStatusTree(ws), config))
			return
		}

		out := map[string]any{
			"path":       ws.Path(),
			"adapter":    cfg.Adapter,
			"bootstrap":  ws.Bootstrap(),
			"components": ws.Status(),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			fatal("Failed to encode JSON", err)
		}
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusTree, "tree", false, "Print a Mermaid diagram instead of JSON")
	rootCmd.AddCommand(statusCmd)
}
