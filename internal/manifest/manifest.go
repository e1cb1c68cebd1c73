// Package manifest loads and validates the secretforge.yaml declaration file.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/secretforge/secretforge/internal/errors"
)

//go:embed schema.json
var schemaJSON []byte

// Manifest is the top-level secretforge.yaml structure.
type Manifest struct {
	Version     int                       `yaml:"version"`
	Stack       string                    `yaml:"stack"`
	Description string                    `yaml:"description,omitempty"`
	Keys        map[string]KeyConfig      `yaml:"keys,omitempty"`
	Roles       map[string]RoleConfig     `yaml:"roles,omitempty"`
	Secrets     map[string]SecretConfig   `yaml:"secrets,omitempty"`
	Attachments map[string]AttachConfig   `yaml:"attachments,omitempty"`
	Grants      []GrantConfig             `yaml:"grants,omitempty"`
}

// KeyConfig declares an encryption key or imports one by ARN.
type KeyConfig struct {
	Arn            string `yaml:"arn,omitempty"`
	Description    string `yaml:"description,omitempty"`
	EnableRotation bool   `yaml:"enableRotation,omitempty"`
}

// RoleConfig declares a role or imports one by ARN.
type RoleConfig struct {
	Arn         string           `yaml:"arn,omitempty"`
	Name        string           `yaml:"name,omitempty"`
	Description string           `yaml:"description,omitempty"`
	AssumedBy   *PrincipalConfig `yaml:"assumedBy,omitempty"`
}

// PrincipalConfig names the principal trusted to assume a declared role.
type PrincipalConfig struct {
	Service string `yaml:"service,omitempty"`
	Arn     string `yaml:"arn,omitempty"`
}

// SecretConfig declares a secret or imports one by ARN.
type SecretConfig struct {
	Arn           string           `yaml:"arn,omitempty"`
	Description   string           `yaml:"description,omitempty"`
	Name          string           `yaml:"name,omitempty"`
	EncryptionKey string           `yaml:"encryptionKey,omitempty"`
	Generate      *GenerateConfig  `yaml:"generate,omitempty"`
	Rotation      *RotationConfig  `yaml:"rotation,omitempty"`
}

// GenerateConfig is the password-generation ruleset for a declared secret.
type GenerateConfig struct {
	Template                string `yaml:"template,omitempty"`
	Key                     string `yaml:"key,omitempty"`
	Length                  int    `yaml:"length,omitempty"`
	ExcludeCharacters       string `yaml:"excludeCharacters,omitempty"`
	ExcludeUppercase        bool   `yaml:"excludeUppercase,omitempty"`
	ExcludeLowercase        bool   `yaml:"excludeLowercase,omitempty"`
	ExcludeNumbers          bool   `yaml:"excludeNumbers,omitempty"`
	ExcludePunctuation      bool   `yaml:"excludePunctuation,omitempty"`
	IncludeSpace            bool   `yaml:"includeSpace,omitempty"`
	RequireEachIncludedType *bool  `yaml:"requireEachIncludedType,omitempty"`
}

// RotationConfig registers a rotation schedule against a secret.
type RotationConfig struct {
	LambdaArn string `yaml:"lambdaArn"`
	AfterDays int    `yaml:"afterDays,omitempty"`
}

// AttachConfig declares a target attachment or imports one by ARN.
type AttachConfig struct {
	Arn        string `yaml:"arn,omitempty"`
	Secret     string `yaml:"secret,omitempty"`
	TargetID   string `yaml:"targetId,omitempty"`
	TargetType string `yaml:"targetType,omitempty"`
}

// GrantConfig grants a role read access on a secret or attachment.
type GrantConfig struct {
	Role          string   `yaml:"role"`
	Secret        string   `yaml:"secret"`
	VersionStages []string `yaml:"versionStages,omitempty"`
}

// Load reads, schema-validates, and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "manifest file not found",
				Suggestion: "Run 'secretforge init' to create a starter manifest",
			}
		}
		return nil, errors.UserError{
			Message:    "Failed to read manifest file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}
	return Parse(data)
}

// Parse schema-validates and decodes manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	// Decode generically first so the schema sees the raw document shape.
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, errors.ConfigError{
			Message:    "manifest is not valid YAML",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}
	if err := validateSchema(generic); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.ConfigError{
			Message:    "manifest does not match the expected structure",
			Suggestion: "Compare the manifest against the documented format",
		}
	}
	return &m, nil
}

func validateSchema(document interface{}) error {
	jsonData, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return errors.ConfigError{
			Message:    fmt.Sprintf("manifest failed schema validation:\n  - %s", strings.Join(errorMessages, "\n  - ")),
			Suggestion: "Fix the listed fields and run 'secretforge validate' again",
		}
	}

	return nil
}
