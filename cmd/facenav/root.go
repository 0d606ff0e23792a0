package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "facenav",
		Short:         "Facial gesture pointer control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (YAML or TOML)")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&ctx.debugFlag, "debug", false, "Enable debug logging")
	flags.BoolVar(&ctx.gesturesFlag, "debug-gestures", false, "Trace every gesture edge and timer (very verbose)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newReplayCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newControlCommands(ctx)...)

	return rootCmd
}
