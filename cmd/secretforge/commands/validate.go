package commands

import (
	"github.com/spf13/cobra"

	"github.com/secretforge/secretforge/internal/config"
	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/internal/manifest"
	"github.com/secretforge/secretforge/internal/synth"
)

// NewValidateCommand creates the validate command that checks the manifest
// without writing anything.
func NewValidateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest without writing a template",
		Long: `Check the manifest against the schema and all construction invariants
(generation ruleset pairing, reference resolution, target types) by building
the construct tree in memory. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(cfg.ManifestPath)
			if err != nil {
				return errors.SimplifyError(err)
			}

			stack, err := synth.NewBuilder(cfg.Logger).Build(m)
			if err != nil {
				return errors.SimplifyError(err)
			}

			cfg.Logger.Info("manifest is valid: stack '%s' declares %d resources",
				stack.Name(), stack.Template().ResourceCount())
			return nil
		},
	}

	return cmd
}
