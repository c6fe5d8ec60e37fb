package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite/pkg/snapshot"
)

var (
	exportOutput   string
	exportSnapshot bool
)

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Write a note, or the whole snapshot, to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		var data []byte
		if exportSnapshot {
			s, err := snapshot.SerializerFor(cfg.Format)
			if err != nil {
				fatal("Invalid format", err)
			}
			data, err = snapshot.NewCodec(s).Encode(ws.State())
			if err != nil {
				fatal("Failed to encode snapshot", err)
			}
		} else {
			n, err := findNote(ws.State(), argOrEmpty(args))
			if err != nil {
				fatal("Failed to find note", err)
			}
			data = []byte(n.Content)
		}

		var out io.Writer = os.Stdout
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				fatal("Failed to create output", err)
			}
			defer f.Close()
			out = f
		}
		if _, err := out.Write(data); err != nil {
			fatal("Failed to write output", err)
		}
		if out != os.Stdout {
			fmt.Fprintf(os.Stderr, "Exported %d bytes to %s\n", len(data), exportOutput)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (stdout by default)")
	exportCmd.Flags().BoolVar(&exportSnapshot, "snapshot", false, "Export the whole state in the snapshot format")
	rootCmd.AddCommand(exportCmd)
}
