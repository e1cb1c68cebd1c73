package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/secretforge/secretforge/internal/config"
	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/internal/manifest"
	"github.com/secretforge/secretforge/internal/synth"
)

// NewSynthCommand creates the synth command that compiles the manifest into a
// template.
func NewSynthCommand(cfg *config.Config) *cobra.Command {
	var (
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "synth --out <file>",
		Short: "Compile the manifest into a CloudFormation template",
		Long: `Compile the secrets, attachments, rotation schedules, and grants declared
in the manifest into a CloudFormation template fragment.

The output format is auto-detected from the file extension, or can be
specified explicitly with --format.

Supported formats:
  json  - CloudFormation template JSON (default)
  yaml  - CloudFormation template YAML

Examples:
  secretforge synth --out template.json
  secretforge synth --out template.yaml
  secretforge synth --out stack.tmpl --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return fmt.Errorf("--out flag is required (explicit opt-in to write files)")
			}

			renderFormat, err := resolveFormat(format, outputPath)
			if err != nil {
				return err
			}

			m, err := manifest.Load(cfg.ManifestPath)
			if err != nil {
				return errors.SimplifyError(err)
			}

			stack, err := synth.NewBuilder(cfg.Logger).Build(m)
			if err != nil {
				return errors.SimplifyError(err)
			}

			var data []byte
			switch renderFormat {
			case "json":
				data, err = stack.Template().RenderJSON()
			case "yaml":
				data, err = stack.Template().RenderYAML()
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return errors.SimplifyError(err)
			}

			cfg.Logger.Info("synthesized stack '%s' (%d resources) to %s",
				stack.Name(), stack.Template().ResourceCount(), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputPath, "out", "", "Output file path (required)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml (default: auto-detect)")

	return cmd
}

func resolveFormat(format, outputPath string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".yaml", ".yml":
			return "yaml", nil
		default:
			return "json", nil
		}
	}
	switch format {
	case "json", "yaml":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format '%s' (use json or yaml)", format)
	}
}
