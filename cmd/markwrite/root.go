package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite"
	"github.com/aretw0/markwrite/internal/config"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	adapter    string
	format     string
	versioning bool
	asyncSave  bool
	ephemeral  bool

	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "markwrite",
	Short: "A note-taking engine that keeps your notes and session in one snapshot",
	Long: `MarkWrite keeps a collection of notes together with the editor session
(theme, zen mode, ambient sound, preview and layout) and saves every change
as a single snapshot: a file (optionally versioned with git), a SQLite
database or nothing at all with --ephemeral.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, &loaded); err != nil {
			return err
		}
		cfg = loaded

		level, _ := cfg.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

// applyFlags lets flags set on the command line win over file and env.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("dir") {
		dir, err := config.ExpandPath(dataDir)
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	if flags.Changed("adapter") {
		c.Adapter = adapter
	}
	if flags.Changed("format") {
		c.Format = format
	}
	if flags.Changed("versioning") {
		c.Versioning = versioning
	}
	if flags.Changed("async") {
		c.AsyncSave = asyncSave
	}
	if ephemeral {
		c.Adapter = "memory"
		c.Versioning = false
	}
	return c.Validate()
}

// openWorkspace opens the configured workspace. Callers must Close it.
func openWorkspace(ctx context.Context, opts ...markwrite.Option) *markwrite.Workspace {
	base := []markwrite.Option{
		markwrite.FromConfig(cfg),
		markwrite.WithLogger(slog.Default()),
	}
	ws, err := markwrite.New(ctx, cfg.DataDir, append(base, opts...)...)
	if err != nil {
		fatal("Failed to open workspace", err)
	}
	return ws
}

// closeWorkspace flushes pending saves before the process exits.
func closeWorkspace(ctx context.Context, ws *markwrite.Workspace) {
	if err := ws.Close(ctx); err != nil {
		fatal("Failed to save workspace", err)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultPath+")")
	flags.StringVarP(&dataDir, "dir", "d", "", "Data directory (default "+config.DefaultDataDir+")")
	flags.StringVar(&adapter, "adapter", "fs", "Storage adapter: fs, sqlite or memory")
	flags.StringVar(&format, "format", "json", "Snapshot format: json or yaml")
	flags.BoolVar(&versioning, "versioning", false, "Commit every save to git (fs adapter)")
	flags.BoolVar(&asyncSave, "async", false, "Save in the background")
	flags.BoolVar(&ephemeral, "ephemeral", false, "Keep everything in memory")
}
