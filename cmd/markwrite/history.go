package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyShow  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the saved versions of the snapshot (requires --versioning)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		if historyShow != "" {
			state, err := ws.Revision(ctx, historyShow)
			if err != nil {
				fatal("Failed to read revision", err)
			}
			for _, n := range state.Notes {
				mark := " "
				if n.ID == state.ActiveNoteID {
					mark = "*"
				}
				fmt.Printf("%s %s  %s\n", mark, n.ID, n.Title)
			}
			fmt.Println()
			printSettings(state)
			return
		}

		commits, err := ws.History(ctx, historyLimit)
		if err != nil {
			fatal("Failed to read history", err)
		}
		for _, c := range commits {
			fmt.Printf("%s  %s  %s\n", shortHash(c.Hash), c.Date.Format("2006-01-02 15:04"), c.Subject)
		}
	},
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of versions to list")
	historyCmd.Flags().StringVar(&historyShow, "show", "", "Print the notes and settings of a revision")
	rootCmd.AddCommand(historyCmd)
}
