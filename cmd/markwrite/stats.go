package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite/pkg/text"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats [id]",
	Short: "Word count, characters and reading time of a note",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		n, err := findNote(ws.State(), argOrEmpty(args))
		if err != nil {
			fatal("Failed to find note", err)
		}
		stats := text.Analyze(n.Content)

		if statsJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(stats); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}
		fmt.Printf("%s\n  words:      %d\n  characters: %d\n  %s\n  updated:    %s\n",
			n.Title, stats.Words, stats.Characters, stats.ReadingTime, text.FormatDate(n.UpdatedAt, nil))
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statsCmd)
}
