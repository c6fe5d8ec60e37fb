package main

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/markwrite/pkg/core"
)

var (
	editorHeight  float64
	previewHeight float64
)

// themeAction parses "light", "dark" or "toggle".
func themeAction(arg string, current core.Theme) (core.Action, error) {
	if arg == "toggle" {
		if current == core.ThemeDark {
			return core.SetTheme{Theme: core.ThemeLight}, nil
		}
		return core.SetTheme{Theme: core.ThemeDark}, nil
	}
	t := core.Theme(arg)
	if !t.Valid() {
		return nil, fmt.Errorf("unknown theme %q", arg)
	}
	return core.SetTheme{Theme: t}, nil
}

// zenAction parses "on" or "off"; no argument flips the mode.
func zenAction(arg string, current core.ZenMode) (core.Action, error) {
	if arg == "" {
		if current == core.ZenOn {
			return core.SetZenMode{Mode: core.ZenOff}, nil
		}
		return core.SetZenMode{Mode: core.ZenOn}, nil
	}
	z := core.ZenMode(arg)
	if !z.Valid() {
		return nil, fmt.Errorf("unknown zen mode %q", arg)
	}
	return core.SetZenMode{Mode: z}, nil
}

func soundAction(arg string) (core.Action, error) {
	s := core.SoundType(arg)
	if !s.Valid() {
		return nil, fmt.Errorf("unknown sound %q (want one of %v)", arg, core.Sounds)
	}
	return core.SetSound{Sound: s}, nil
}

// previewAction parses "on"/"off" (any strconv bool); no argument toggles.
func previewAction(arg string) (core.Action, error) {
	if arg == "" {
		return core.TogglePreview{}, nil
	}
	switch arg {
	case "on":
		return core.TogglePreview{Visible: core.BoolPtr(true)}, nil
	case "off":
		return core.TogglePreview{Visible: core.BoolPtr(false)}, nil
	}
	v, err := strconv.ParseBool(arg)
	if err != nil {
		return nil, fmt.Errorf("preview expects on or off, got %q", arg)
	}
	return core.TogglePreview{Visible: core.BoolPtr(v)}, nil
}

// checkPercent keeps pane heights inside the range the layout can show.
func checkPercent(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("height %v is outside 0-100", v)
	}
	return nil
}

func printSettings(s core.AppState) {
	preview := "hidden"
	if s.PreviewVisible {
		preview = "visible"
	}
	fmt.Printf("theme:   %s\nzen:     %s\nsound:   %s\npreview: %s\nlayout:  editor %.0f%% / preview %.0f%%\n",
		s.Theme, s.ZenMode, s.SoundType, preview, s.EditorHeight, s.PreviewHeight)
}

// settingCommand builds a command that turns its argument into one action.
func settingCommand(use, short string, args cobra.PositionalArgs, build func(arg string, s core.AppState) (core.Action, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			ws := openWorkspace(ctx)
			defer closeWorkspace(ctx, ws)

			action, err := build(argOrEmpty(args), ws.State())
			if err != nil {
				fatal("Invalid setting", err)
			}
			ws.Dispatch(action)
			printSettings(ws.State())
		},
	}
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Set the editor and preview pane heights in percent",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, v := range []float64{editorHeight, previewHeight} {
			if err := checkPercent(v); err != nil {
				fatal("Invalid layout", err)
			}
		}

		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)

		if cmd.Flags().Changed("editor") {
			ws.Dispatch(core.SetEditorHeight{Percent: editorHeight})
		}
		if cmd.Flags().Changed("preview") {
			ws.Dispatch(core.SetPreviewHeight{Percent: previewHeight})
		}
		printSettings(ws.State())
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the session settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer closeWorkspace(ctx, ws)
		printSettings(ws.State())
	},
}

func init() {
	themeCmd := settingCommand("theme light|dark|toggle", "Set the color theme", cobra.ExactArgs(1),
		func(arg string, s core.AppState) (core.Action, error) { return themeAction(arg, s.Theme) })
	zenCmd := settingCommand("zen [on|off]", "Switch zen mode (leaving it stops the ambient sound)", cobra.MaximumNArgs(1),
		func(arg string, s core.AppState) (core.Action, error) { return zenAction(arg, s.ZenMode) })
	soundCmd := settingCommand("sound none|rain|ocean|forest", "Select the ambient sound", cobra.ExactArgs(1),
		func(arg string, _ core.AppState) (core.Action, error) { return soundAction(arg) })
	previewCmd := settingCommand("preview [on|off]", "Show, hide or toggle the preview pane", cobra.MaximumNArgs(1),
		func(arg string, _ core.AppState) (core.Action, error) { return previewAction(arg) })

	layoutCmd.Flags().Float64Var(&editorHeight, "editor", core.DefaultEditorHeight, "Editor pane height (0-100)")
	layoutCmd.Flags().Float64Var(&previewHeight, "preview", core.DefaultPreviewHeight, "Preview pane height (0-100)")

	rootCmd.AddCommand(themeCmd, zenCmd, soundCmd, previewCmd, layoutCmd, settingsCmd)
}
