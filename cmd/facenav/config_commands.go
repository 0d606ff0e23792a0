package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facenav/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective gesture thresholds and motion settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.fileExists {
				fmt.Fprintf(out, "Config: %s\n", ctx.resolvedPath)
			} else {
				fmt.Fprintln(out, "Config: built-in defaults (no file found)")
			}
			fmt.Fprintln(out, renderConfig(cfg))
			return nil
		},
	}
}

func renderConfig(cfg *config.Config) string {
	g := cfg.Gesture
	m := cfg.Motion
	rows := [][]string{
		{"Pan left/right", "mouthLeft / mouthRight", fmt.Sprintf("> %.2f", g.PanThreshold)},
		{"Move up", "mouthShrugUpper", fmt.Sprintf("> %.2f", g.UpThreshold)},
		{"Move down", "mouthRollLower", fmt.Sprintf("> %.2f", g.DownThreshold)},
		{"Left click", "browInnerUp", fmt.Sprintf("rise > %.2f, fall < %.2f, debounce %s", g.BrowRise, g.BrowFall, g.ClickDebounce)},
		{"Right click", "eyeBlinkLeft", fmt.Sprintf("> %.2f for %s, release < %.2f", g.BlinkEngage, g.BlinkHold, g.BlinkRelease)},
		{"Resume", "browInnerUp", fmt.Sprintf("%d raises within %s", g.ResumeRaises, g.ResumeWindow)},
		{"Motion", "", fmt.Sprintf("step %d, sensitivity %.2f, ramp +%.2f up to %.1fx within %s, poll %s",
			g.MoveStep, m.Sensitivity, m.SpeedIncrement, m.MaxSpeed, m.Continuity, m.PollInterval)},
	}
	table := renderTable([]string{"Gesture", "Category", "Rule"}, rows, nil)

	preset := g.Preset
	if preset == "" {
		preset = "custom"
	}
	web := "disabled"
	if cfg.Web.Enabled {
		web = cfg.Web.Addr
	}
	journal := "disabled"
	if p := cfg.JournalPath(); p != "" {
		journal = p
	}
	lines := []string{
		table,
		fmt.Sprintf("Preset: %s  Pointer: %s  Source: %s", preset, cfg.Pointer, cfg.Source),
		fmt.Sprintf("Web: %s  Journal: %s", web, journal),
	}
	return strings.Join(lines, "\n")
}

func newConfigInitCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init [PATH]",
		Short:       "Create a sample configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				expanded, err := config.ExpandPath(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			} else {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}
