package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slidestats",
		Short: "Sliding-window mean and variance for numeric series",
		Long: `slidestats computes the mean and variance of every fixed-length window of a
numeric series, either in one pass over a whole file or by replaying the file
as a stream and updating the statistics chunk by chunk.

Settings are read from .slidestats.yaml (searched upwards from the working
directory) and can be overridden with flags.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Path to a config file (default: search for "+configFileHint+")")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newBatchCommand())
	cmd.AddCommand(newStreamCommand())
	cmd.AddCommand(newVerifyCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
