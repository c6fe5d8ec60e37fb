package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite/pkg/core"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Apply JSON actions read from stdin",
	Long: `Dispatch reads a stream of action envelopes from stdin and applies them
in order, for example:

  {"type": "CREATE_NOTE", "payload": {"title": "Ideas", "content": "# Ideas"}}
  {"type": "SET_THEME", "payload": "dark"}

A JSON array of envelopes is accepted as well.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		actions, err := decodeActions(cmd.InOrStdin())
		if err != nil {
			fatal("Failed to read actions", err)
		}

		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		for _, a := range actions {
			ws.Dispatch(a)
		}
		fmt.Printf("Applied %d actions (%d notes, active %q)\n", len(actions), len(ws.State().Notes), ws.State().ActiveNoteID)
	},
}

// decodeActions reads concatenated envelopes or a single array of them.
func decodeActions(r io.Reader) ([]core.Action, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	var raw []json.RawMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid action list: %w", err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		for {
			var msg json.RawMessage
			if err := dec.Decode(&msg); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("invalid action %d: %w", len(raw)+1, err)
			}
			raw = append(raw, msg)
		}
	}

	actions := make([]core.Action, 0, len(raw))
	for i, msg := range raw {
		a, err := core.DecodeAction(msg)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}
