package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/secretforge/secretforge/cmd/secretforge/commands"
	"github.com/secretforge/secretforge/internal/config"
	"github.com/secretforge/secretforge/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		manifestFile string
		noColor      bool
		debug        bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "secretforge",
		Short: "Declare Secrets Manager resources and compile them to CloudFormation",
		Long: `secretforge reads a declarative manifest of secrets, target attachments,
rotation schedules, and access grants and compiles it into a CloudFormation
template fragment. Nothing is deployed and no service is contacted.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.ManifestPath = manifestFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&manifestFile, "manifest", "secretforge.yaml", "Manifest file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewSynthCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
