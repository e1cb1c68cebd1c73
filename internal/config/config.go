package config

import "github.com/secretforge/secretforge/internal/logging"

// Config holds the runtime configuration shared by CLI commands.
type Config struct {
	// ManifestPath is the path to the secretforge.yaml manifest.
	ManifestPath string
	// Logger is the CLI logger, initialized from global flags.
	Logger *logging.Logger
}
