// Package secretsmanager declares Secrets Manager resources as strongly-typed
// constructs and compiles them into CloudFormation template fragments. All
// operations are synchronous, in-memory composition; nothing here talks to
// the service.
package secretsmanager

import (
	awsarn "github.com/aws/aws-sdk-go-v2/aws/arn"

	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/pkg/cfn"
	"github.com/secretforge/secretforge/pkg/construct"
	"github.com/secretforge/secretforge/pkg/iam"
	"github.com/secretforge/secretforge/pkg/kms"
)

const secretResourceType = "AWS::SecretsManager::Secret"

// Secret is the shared behavior of everything that can stand in for a secret:
// freshly declared secrets, secrets imported by reference, and target
// attachments derived from a secret.
type Secret interface {
	// SecretArn returns the entity's identifier, a plain ARN string for
	// imported secrets or a late-bound token for declared ones.
	SecretArn() interface{}
	// EncryptionKey returns the associated encryption key, or nil.
	EncryptionKey() kms.Key
	// SecretValue returns a dynamic reference to the full secret value.
	SecretValue() cfn.Token
	// SecretValueFromJSON returns a dynamic reference to a single JSON field
	// of the secret value.
	SecretValueFromJSON(field string) cfn.Token
	// GrantRead permits the grantee to retrieve the secret value, optionally
	// restricted to the given version stages (any-of semantics). If the
	// secret has an encryption key, decrypt access on the key is granted as
	// well, restricted to requests mediated by the Secrets Manager service.
	GrantRead(grantee iam.Grantable, versionStages ...string) *iam.Grant
	// AddRotationSchedule registers a periodic rotation configuration
	// against this secret.
	AddRotationSchedule(id string, opts RotationScheduleOptions) (*RotationSchedule, error)
}

// secretRef carries the behavior shared by all Secret variants. Identity is
// assigned at construction and never mutated.
type secretRef struct {
	scope *construct.Scope
	arn   interface{}
	key   kms.Key
	// viaService is the kms:ViaService condition value for key grants,
	// either a literal host or a token resolving the region at deploy time.
	viaService interface{}
}

func (s *secretRef) SecretArn() interface{} {
	return s.arn
}

func (s *secretRef) EncryptionKey() kms.Key {
	return s.key
}

func (s *secretRef) SecretValue() cfn.Token {
	return cfn.Join("", "{{resolve:secretsmanager:", s.arn, ":SecretString}}")
}

func (s *secretRef) SecretValueFromJSON(field string) cfn.Token {
	return cfn.Join("", "{{resolve:secretsmanager:", s.arn, ":SecretString:", field, "}}")
}

func (s *secretRef) GrantRead(grantee iam.Grantable, versionStages ...string) *iam.Grant {
	statement := iam.NewPolicyStatement(iam.EffectAllow).
		AddActions("secretsmanager:GetSecretValue").
		AddResources(s.arn)
	if len(versionStages) > 0 {
		// Any supplied stage satisfies the condition, not all of them.
		statement.AddCondition("ForAnyValue:StringEquals", "secretsmanager:VersionStage", versionStages)
	}
	grant := iam.NewGrant(grantee, statement, s.arn)

	if s.key != nil {
		keyGrant := s.key.GrantDecrypt(grantee)
		keyGrant.Statement.AddCondition("StringEquals", "kms:ViaService", s.viaService)
	}

	return grant
}

func (s *secretRef) AddRotationSchedule(id string, opts RotationScheduleOptions) (*RotationSchedule, error) {
	return newRotationSchedule(s.scope, id, s.arn, opts)
}

// regionViaService returns the ViaService host for a secret living in the
// stack's own region, resolved at deploy time.
func regionViaService() cfn.Token {
	return cfn.Join("", "secretsmanager.", cfn.Ref("AWS::Region"), ".amazonaws.com")
}

// arnViaService derives the ViaService host from an imported ARN. Unparseable
// identifiers fall back to the deploy-time region; they are otherwise carried
// verbatim (identifier validation belongs to the deployment layer).
func arnViaService(arn string) interface{} {
	parsed, err := awsarn.Parse(arn)
	if err != nil || parsed.Region == "" {
		return regionViaService()
	}
	return "secretsmanager." + parsed.Region + ".amazonaws.com"
}

// SecretProps configures a declared secret.
type SecretProps struct {
	// Description is an optional human-readable description.
	Description string
	// EncryptionKey optionally encrypts the secret with a customer key
	// instead of the account's default service key.
	EncryptionKey kms.Key
	// GenerateSecretString configures value generation; nil keeps the empty
	// ruleset, which the provider interprets as its own defaults.
	GenerateSecretString *SecretStringGenerator
	// SecretName optionally pins the physical secret name.
	SecretName string
}

// ManagedSecret is a secret declared within the stack.
type ManagedSecret struct {
	secretRef
	logicalID string
}

// NewSecret declares an AWS::SecretsManager::Secret in the parent scope's
// stack. The generation ruleset is validated immediately; a pairing violation
// fails construction and nothing is emitted.
func NewSecret(parent *construct.Scope, id string, props SecretProps) (*ManagedSecret, error) {
	generator := props.GenerateSecretString
	if generator == nil {
		generator = &SecretStringGenerator{}
	}
	if err := generator.Validate(); err != nil {
		return nil, err
	}

	scope, err := parent.Child(id)
	if err != nil {
		return nil, err
	}

	properties := map[string]interface{}{
		"GenerateSecretString": generator.render(),
	}
	if props.Description != "" {
		properties["Description"] = props.Description
	}
	if props.EncryptionKey != nil {
		properties["KmsKeyId"] = props.EncryptionKey.KeyArn()
	}
	if props.SecretName != "" {
		properties["Name"] = props.SecretName
	}

	logicalID := scope.LogicalID()
	res := &cfn.Resource{
		Type:       secretResourceType,
		Properties: properties,
	}
	if err := scope.Stack().Template().AddResource(logicalID, res); err != nil {
		return nil, err
	}

	return &ManagedSecret{
		secretRef: secretRef{
			scope:      scope,
			arn:        cfn.Ref(logicalID),
			key:        props.EncryptionKey,
			viaService: regionViaService(),
		},
		logicalID: logicalID,
	}, nil
}

// LogicalID returns the secret's logical ID within the template.
func (s *ManagedSecret) LogicalID() string {
	return s.logicalID
}

// SecretAttributes identifies an externally-managed secret.
type SecretAttributes struct {
	// SecretArn is the existing secret's ARN. Required.
	SecretArn string
	// EncryptionKey is the key the secret is encrypted with, if any.
	EncryptionKey kms.Key
}

// ImportedSecret references a secret managed outside the stack. No resource
// is emitted for it.
type ImportedSecret struct {
	secretRef
}

// SecretFromArn references an externally-managed secret by ARN alone; the
// entity has no encryption key.
func SecretFromArn(parent *construct.Scope, id, secretArn string) (*ImportedSecret, error) {
	return SecretFromAttributes(parent, id, SecretAttributes{SecretArn: secretArn})
}

// SecretFromAttributes references an externally-managed secret.
func SecretFromAttributes(parent *construct.Scope, id string, attrs SecretAttributes) (*ImportedSecret, error) {
	if attrs.SecretArn == "" {
		return nil, errors.ConfigError{
			Field:      "secretArn",
			Message:    "an imported secret must supply its ARN",
			Suggestion: "Pass the ARN of the existing secret",
		}
	}
	scope, err := parent.Child(id)
	if err != nil {
		return nil, err
	}
	return &ImportedSecret{
		secretRef: secretRef{
			scope:      scope,
			arn:        attrs.SecretArn,
			key:        attrs.EncryptionKey,
			viaService: arnViaService(attrs.SecretArn),
		},
	}, nil
}
