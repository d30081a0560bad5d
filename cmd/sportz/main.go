package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pscheid92/sportz/internal/platform/version"
)

var rootCmd = &cobra.Command{
	Use:          "sportz",
	Short:        "Sportz - live match commentary over WebSocket",
	Version:      version.Version,
	SilenceUsage: true,
	Long: `Sportz serves a REST API for matches and commentary and pushes
new matches and commentary to WebSocket subscribers in real time.`,

	// Running the binary without a subcommand starts the server.
	RunE: runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}
