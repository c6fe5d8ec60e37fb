package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite/pkg/adapters/lifecycle"
	"github.com/aretw0/markwrite/pkg/core"
)

var watchNoReload bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report changes made to the snapshot by other programs",
	Long: `Watch follows the snapshot record of the fs adapter. When another program
(or a git checkout) changes it, the state is reloaded and the resulting
changes are printed. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ws := openWorkspace(ctx)
		defer closeWorkspace(context.Background(), ws)

		external, err := ws.Watch(ctx)
		if err != nil {
			fatal("Failed to watch", err)
		}
		source := lifecycle.NewSource(external)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}
		changes := lifecycle.StoreEvents(ctx, ws.Store(), 64)

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", ws.Path())
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-source.Events():
				if !ok {
					return
				}
				fmt.Printf("[external] %s\n", ev)
				if e, isCore := ev.(core.Event); isCore && e.Type == core.EventDelete {
					continue
				}
				if watchNoReload {
					continue
				}
				if !ws.Reload(ctx) {
					slog.Warn("snapshot changed but could not be loaded")
				}
			case ev := <-changes:
				fmt.Printf("[state]    %s\n", ev)
			}
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoReload, "no-reload", false, "Only report, keep the in-memory state")
	rootCmd.AddCommand(watchCmd)
}
