package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/competitive-radar/backend/pkg/config"
	"github.com/competitive-radar/backend/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Competitor intelligence digests for startup founders",
	Long:  "radar turns a file of competitor updates into a prioritized weekly Markdown digest.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "error"
		if flagVerbose {
			level = "debug"
		}
		if err := logger.Init(level, "console", "stderr"); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log pipeline activity to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "radar %s (commit: %s)\n", version, commit)
	},
}

func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
