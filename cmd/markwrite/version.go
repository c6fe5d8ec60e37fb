package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of markwrite",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("markwrite version %s\n", strings.TrimSpace(markwrite.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
