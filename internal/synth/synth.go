// Package synth builds the construct tree described by a manifest and renders
// it into a template.
package synth

import (
	"fmt"
	"sort"

	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/internal/logging"
	"github.com/secretforge/secretforge/internal/manifest"
	"github.com/secretforge/secretforge/pkg/cfn"
	"github.com/secretforge/secretforge/pkg/construct"
	"github.com/secretforge/secretforge/pkg/iam"
	"github.com/secretforge/secretforge/pkg/kms"
	"github.com/secretforge/secretforge/pkg/secretsmanager"
)

// Builder walks a manifest and declares the corresponding constructs.
type Builder struct {
	logger *logging.Logger
}

// NewBuilder creates a builder logging through the given logger.
func NewBuilder(logger *logging.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build declares every entity in the manifest and returns the stack holding
// the resulting template. Construction is strictly ordered: keys, roles,
// secrets, attachments, then grants, so every reference points backwards.
func (b *Builder) Build(m *manifest.Manifest) (*construct.Stack, error) {
	stack, err := construct.NewStack(m.Stack)
	if err != nil {
		return nil, err
	}
	if m.Description != "" {
		stack.Template().Description = m.Description
	}
	root := stack.Scope()

	keys, err := b.buildKeys(root, m)
	if err != nil {
		return nil, err
	}
	roles, err := b.buildRoles(root, m)
	if err != nil {
		return nil, err
	}
	entities, err := b.buildSecrets(root, m, keys)
	if err != nil {
		return nil, err
	}
	if err := b.buildAttachments(root, m, entities); err != nil {
		return nil, err
	}
	if err := b.applyGrants(m, roles, entities); err != nil {
		return nil, err
	}

	return stack, nil
}

func (b *Builder) buildKeys(root *construct.Scope, m *manifest.Manifest) (map[string]kms.Key, error) {
	keys := make(map[string]kms.Key)
	for _, name := range sortedKeys(m.Keys) {
		cfg := m.Keys[name]
		if cfg.Arn != "" {
			keys[name] = kms.KeyFromArn(cfg.Arn)
			b.logger.Debug("imported key '%s' by ARN", name)
			continue
		}
		key, err := kms.NewKey(root, name, kms.KeyProps{
			Description:       cfg.Description,
			EnableKeyRotation: cfg.EnableRotation,
		})
		if err != nil {
			return nil, err
		}
		keys[name] = key
		b.logger.Debug("declared key '%s'", name)
	}
	return keys, nil
}

func (b *Builder) buildRoles(root *construct.Scope, m *manifest.Manifest) (map[string]iam.Grantable, error) {
	roles := make(map[string]iam.Grantable)
	for _, name := range sortedKeys(m.Roles) {
		cfg := m.Roles[name]
		if cfg.Arn != "" {
			roles[name] = iam.RoleFromArn(cfg.Arn)
			b.logger.Debug("imported role '%s' by ARN", name)
			continue
		}
		if cfg.AssumedBy == nil {
			return nil, errors.ConfigError{
				Field:      fmt.Sprintf("roles.%s", name),
				Message:    "a declared role needs 'assumedBy', an imported role needs 'arn'",
				Suggestion: "Set assumedBy.service or assumedBy.arn, or import the role by ARN",
			}
		}
		var principal iam.Principal
		switch {
		case cfg.AssumedBy.Service != "":
			principal = iam.ServicePrincipal(cfg.AssumedBy.Service)
		case cfg.AssumedBy.Arn != "":
			principal = iam.ArnPrincipal(cfg.AssumedBy.Arn)
		default:
			return nil, errors.ConfigError{
				Field:      fmt.Sprintf("roles.%s.assumedBy", name),
				Message:    "principal must name a service or an ARN",
				Suggestion: "Set assumedBy.service (e.g. lambda.amazonaws.com) or assumedBy.arn",
			}
		}
		role, err := iam.NewRole(root, name, iam.RoleProps{
			AssumedBy:   principal,
			RoleName:    cfg.Name,
			Description: cfg.Description,
		})
		if err != nil {
			return nil, err
		}
		roles[name] = role
		b.logger.Debug("declared role '%s'", name)
	}
	return roles, nil
}

func (b *Builder) buildSecrets(root *construct.Scope, m *manifest.Manifest, keys map[string]kms.Key) (map[string]secretsmanager.Secret, error) {
	entities := make(map[string]secretsmanager.Secret)
	for _, name := range sortedKeys(m.Secrets) {
		cfg := m.Secrets[name]

		var key kms.Key
		if cfg.EncryptionKey != "" {
			var ok bool
			key, ok = keys[cfg.EncryptionKey]
			if !ok {
				return nil, errors.ConfigError{
					Field:      fmt.Sprintf("secrets.%s.encryptionKey", name),
					Value:      cfg.EncryptionKey,
					Message:    "references an undeclared key",
					Suggestion: "Declare the key under 'keys' or fix the reference",
				}
			}
		}

		var entity secretsmanager.Secret
		if cfg.Arn != "" {
			if cfg.Description != "" || cfg.Name != "" || cfg.Generate != nil {
				return nil, errors.ConfigError{
					Field:      fmt.Sprintf("secrets.%s", name),
					Message:    "an imported secret only accepts 'arn' and 'encryptionKey'",
					Suggestion: "Remove description/name/generate, or drop 'arn' to declare the secret here",
				}
			}
			imported, err := secretsmanager.SecretFromAttributes(root, name, secretsmanager.SecretAttributes{
				SecretArn:     cfg.Arn,
				EncryptionKey: key,
			})
			if err != nil {
				return nil, err
			}
			entity = imported
			b.logger.Debug("imported secret '%s' by ARN", name)
		} else {
			declared, err := secretsmanager.NewSecret(root, name, secretsmanager.SecretProps{
				Description:          cfg.Description,
				SecretName:           cfg.Name,
				EncryptionKey:        key,
				GenerateSecretString: generatorFromConfig(cfg.Generate),
			})
			if err != nil {
				return nil, err
			}
			entity = declared
			root.Stack().Template().AddOutput(outputName(name)+"Arn", cfn.Output{
				Description: fmt.Sprintf("ARN of secret '%s'", name),
				Value:       declared.SecretArn(),
			})
			b.logger.Debug("declared secret '%s'", name)
		}

		if cfg.Rotation != nil {
			if _, err := entity.AddRotationSchedule("Rotation", secretsmanager.RotationScheduleOptions{
				RotationLambdaArn:      cfg.Rotation.LambdaArn,
				AutomaticallyAfterDays: cfg.Rotation.AfterDays,
			}); err != nil {
				return nil, err
			}
			b.logger.Debug("scheduled rotation for secret '%s'", name)
		}

		entities[name] = entity
	}
	return entities, nil
}

func (b *Builder) buildAttachments(root *construct.Scope, m *manifest.Manifest, entities map[string]secretsmanager.Secret) error {
	for _, name := range sortedKeys(m.Attachments) {
		cfg := m.Attachments[name]
		if _, exists := entities[name]; exists {
			return errors.ConfigError{
				Field:      fmt.Sprintf("attachments.%s", name),
				Message:    "name collides with a secret",
				Suggestion: "Secrets and attachments share one namespace for grant references; rename one of them",
			}
		}

		if cfg.Arn != "" {
			if cfg.Secret != "" || cfg.TargetID != "" || cfg.TargetType != "" {
				return errors.ConfigError{
					Field:      fmt.Sprintf("attachments.%s", name),
					Message:    "an imported attachment only accepts 'arn'",
					Suggestion: "Remove secret/targetId/targetType, or drop 'arn' to declare the attachment here",
				}
			}
			imported, err := secretsmanager.SecretTargetAttachmentFromArn(root, name, cfg.Arn)
			if err != nil {
				return err
			}
			entities[name] = imported
			b.logger.Debug("imported attachment '%s' by ARN", name)
			continue
		}

		source, ok := entities[cfg.Secret]
		if !ok {
			return errors.ConfigError{
				Field:      fmt.Sprintf("attachments.%s.secret", name),
				Value:      cfg.Secret,
				Message:    "references an undeclared secret",
				Suggestion: "Declare the secret under 'secrets' or fix the reference",
			}
		}
		targetType, err := secretsmanager.ParseAttachmentTargetType(cfg.TargetType)
		if err != nil {
			return err
		}
		attachment, err := secretsmanager.NewSecretTargetAttachment(root, name, secretsmanager.SecretTargetAttachmentProps{
			Secret: source,
			Target: secretsmanager.AttachmentTarget{
				ID:   cfg.TargetID,
				Type: targetType,
			},
		})
		if err != nil {
			return err
		}
		entities[name] = attachment
		root.Stack().Template().AddOutput(outputName(name)+"Arn", cfn.Output{
			Description: fmt.Sprintf("ARN of attachment '%s'; supersedes the source secret", name),
			Value:       attachment.SecretArn(),
		})
		b.logger.Debug("declared attachment '%s' on secret '%s'", name, cfg.Secret)
	}
	return nil
}

func (b *Builder) applyGrants(m *manifest.Manifest, roles map[string]iam.Grantable, entities map[string]secretsmanager.Secret) error {
	for i, g := range m.Grants {
		role, ok := roles[g.Role]
		if !ok {
			return errors.ConfigError{
				Field:      fmt.Sprintf("grants[%d].role", i),
				Value:      g.Role,
				Message:    "references an undeclared role",
				Suggestion: "Declare the role under 'roles' or fix the reference",
			}
		}
		entity, ok := entities[g.Secret]
		if !ok {
			return errors.ConfigError{
				Field:      fmt.Sprintf("grants[%d].secret", i),
				Value:      g.Secret,
				Message:    "references an undeclared secret or attachment",
				Suggestion: "Declare it under 'secrets' or 'attachments', or fix the reference",
			}
		}
		grant := entity.GrantRead(role, g.VersionStages...)
		if !grant.AttachedToPrincipal {
			if _, imported := role.(*iam.ImportedRole); imported {
				b.logger.Warn("grant on '%s' for role '%s' was not attached: imported roles have no mutable policy", g.Secret, g.Role)
			} else {
				b.logger.Warn("grant on '%s' for role '%s' was not attached: the role rejected the statement", g.Secret, g.Role)
			}
		}
	}
	return nil
}

func generatorFromConfig(cfg *manifest.GenerateConfig) *secretsmanager.SecretStringGenerator {
	if cfg == nil {
		return nil
	}
	return &secretsmanager.SecretStringGenerator{
		SecretStringTemplate:    cfg.Template,
		GenerateStringKey:       cfg.Key,
		PasswordLength:          cfg.Length,
		ExcludeCharacters:       cfg.ExcludeCharacters,
		ExcludeUppercase:        cfg.ExcludeUppercase,
		ExcludeLowercase:        cfg.ExcludeLowercase,
		ExcludeNumbers:          cfg.ExcludeNumbers,
		ExcludePunctuation:      cfg.ExcludePunctuation,
		IncludeSpace:            cfg.IncludeSpace,
		RequireEachIncludedType: cfg.RequireEachIncludedType,
	}
}

// outputName strips characters CloudFormation forbids in output keys.
func outputName(name string) string {
	var b []rune
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b = append(b, r)
		}
	}
	return string(b)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
