// Command cfstats looks up a Codeforces handle and prints its submission statistics.
package main

import (
	"fmt"
	"os"

	"cf_stats/cmd/cfstats/commands"
	"cf_stats/internal/platform/logger"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "cfstats",
		Short: "Codeforces submission statistics",
		Long: `cfstats fetches a handle's full submission history from the Codeforces API
and summarizes it by verdict and by problem tag.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level := "warn"
			if verbose {
				level = "debug"
			}
			return logger.Init(logger.Config{Level: level, Format: "console", OutputPath: "stderr"})
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(commands.NewProfileCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cfstats %s\n", version)
		},
	}
}
