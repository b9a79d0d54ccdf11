package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/clipd/cmd/clipd/commands"
	"github.com/teranos/clipd/logger"
)

var rootCmd = &cobra.Command{
	Use:   "clipd",
	Short: "clipd - media download orchestration service",
	Long: `clipd - web backend for yt-dlp media downloads.

clipd accepts media URLs over HTTP, drives the yt-dlp binary to probe and
fetch them, tracks every job in a SQLite ledger, and serves the resulting
artifacts until they age out of the retention window.

Available commands:
  serve   - Start the HTTP server, worker pool and retention sweeper
  purge   - Run a one-shot retention sweep
  jobs    - List recent download jobs
  version - Show build information

Examples:
  clipd serve                      # Start on the configured port
  clipd purge                      # Sweep expired artifacts now
  clipd purge --older-than 30m     # Sweep with a custom cutoff
  clipd jobs --limit 50            # Show the 50 most recent jobs`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: clipd.toml discovery)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.PurgeCmd)
	rootCmd.AddCommand(commands.JobsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
