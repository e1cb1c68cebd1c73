package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/secretforge/secretforge/internal/config"
)

const exampleManifest = `version: 1

# Stack the declared resources belong to
stack: my-app

# Encryption keys (declare inline or import by ARN)
keys:
  appKey:
    description: Key for application secrets
    enableRotation: true
  # sharedKey:
  #   arn: arn:aws:kms:us-east-1:123456789012:key/11111111-2222-3333-4444-555555555555

# Roles that will be granted access to secrets
roles:
  appReader:
    assumedBy:
      service: lambda.amazonaws.com
  # ciRole:
  #   arn: arn:aws:iam::123456789012:role/ci   # imported roles cannot receive grants

# Secrets (declare inline or import by ARN)
secrets:
  dbCredentials:
    description: Credentials for the orders database
    encryptionKey: appKey
    generate:
      template: '{"username": "admin"}'
      key: password
      excludeCharacters: '"@/'
    # rotation:
    #   lambdaArn: arn:aws:lambda:us-east-1:123456789012:function:rotate-db
    #   afterDays: 30
  # legacyToken:
  #   arn: arn:aws:secretsmanager:us-east-1:123456789012:secret:legacy-AbCdEf

# Attachments bind a secret to the resource consuming it. Downstream
# references must use the attachment, not the bare secret.
attachments:
  dbAttachment:
    secret: dbCredentials
    targetId: orders-db
    targetType: instance

# Access grants (reference secrets or attachments by name)
grants:
  - role: appReader
    secret: dbAttachment
    versionStages: [AWSCURRENT]
`

// NewInitCommand creates the init command that writes a starter manifest.
func NewInitCommand(cfg *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter manifest",
		Long:  `Write an example secretforge.yaml manifest to the configured path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.ManifestPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.ManifestPath)
			}

			if err := os.WriteFile(cfg.ManifestPath, []byte(exampleManifest), 0o644); err != nil {
				return fmt.Errorf("failed to write manifest: %w", err)
			}

			cfg.Logger.Info("created %s", cfg.ManifestPath)
			cfg.Logger.Info("edit it, then run 'secretforge synth --out template.json'")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing manifest")

	return cmd
}
