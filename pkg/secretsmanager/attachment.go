package secretsmanager

import (
	"fmt"

	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/pkg/cfn"
	"github.com/secretforge/secretforge/pkg/construct"
)

const attachmentResourceType = "AWS::SecretsManager::SecretTargetAttachment"

// AttachmentTargetType is the closed set of resources a secret can attach to.
type AttachmentTargetType string

const (
	// AttachmentTargetInstance attaches the secret to a database instance.
	AttachmentTargetInstance AttachmentTargetType = "AWS::RDS::DBInstance"
	// AttachmentTargetCluster attaches the secret to a database cluster.
	AttachmentTargetCluster AttachmentTargetType = "AWS::RDS::DBCluster"
)

// ParseAttachmentTargetType maps the short manifest spelling onto the
// provider type string.
func ParseAttachmentTargetType(s string) (AttachmentTargetType, error) {
	switch s {
	case "instance":
		return AttachmentTargetInstance, nil
	case "cluster":
		return AttachmentTargetCluster, nil
	default:
		return "", errors.ConfigError{
			Field:      "targetType",
			Value:      s,
			Message:    "unknown attachment target type",
			Suggestion: "Use 'instance' or 'cluster'",
		}
	}
}

// AttachmentTarget describes what a secret is attached to.
type AttachmentTarget struct {
	// ID is the target resource's identifier.
	ID string
	// Type is the target's resource type.
	Type AttachmentTargetType
}

// SecretTargetAttachmentProps configures an attachment.
type SecretTargetAttachmentProps struct {
	// Secret is the secret being attached. Required.
	Secret Secret
	// Target is the consuming resource. Required.
	Target AttachmentTarget
}

// SecretTargetAttachment links an existing secret to a consuming resource.
// Once attached, the attachment's own identifier supersedes the source
// secret's identifier for all downstream references, which preserves the
// deploy-ordering edge between the secret, the target, and the consumers.
type SecretTargetAttachment struct {
	secretRef
	logicalID string
	source    Secret
}

// NewSecretTargetAttachment declares an attachment between an existing secret
// entity and a target. The source secret's encryption key is carried forward
// unchanged.
func NewSecretTargetAttachment(parent *construct.Scope, id string, props SecretTargetAttachmentProps) (*SecretTargetAttachment, error) {
	if props.Secret == nil {
		return nil, errors.ConfigError{
			Field:      "secret",
			Message:    "an attachment must reference an existing secret entity",
			Suggestion: "Pass the secret returned by NewSecret or an import factory",
		}
	}
	if props.Target.ID == "" {
		return nil, errors.ConfigError{
			Field:      "targetId",
			Message:    "an attachment must name its target",
			Suggestion: "Set the target resource identifier",
		}
	}
	switch props.Target.Type {
	case AttachmentTargetInstance, AttachmentTargetCluster:
	default:
		return nil, errors.ConfigError{
			Field:      "targetType",
			Value:      string(props.Target.Type),
			Message:    "unknown attachment target type",
			Suggestion: fmt.Sprintf("Use %s or %s", AttachmentTargetInstance, AttachmentTargetCluster),
		}
	}

	scope, err := parent.Child(id)
	if err != nil {
		return nil, err
	}

	logicalID := scope.LogicalID()
	res := &cfn.Resource{
		Type: attachmentResourceType,
		Properties: map[string]interface{}{
			// SecretId carries the dependency edge back to the source secret;
			// it must stay a reference so deploy ordering is preserved.
			"SecretId":   props.Secret.SecretArn(),
			"TargetId":   props.Target.ID,
			"TargetType": string(props.Target.Type),
		},
	}
	if err := scope.Stack().Template().AddResource(logicalID, res); err != nil {
		return nil, err
	}

	return &SecretTargetAttachment{
		secretRef: secretRef{
			scope:      scope,
			arn:        cfn.Ref(logicalID),
			key:        props.Secret.EncryptionKey(),
			viaService: regionViaService(),
		},
		logicalID: logicalID,
		source:    props.Secret,
	}, nil
}

// LogicalID returns the attachment's logical ID within the template.
func (a *SecretTargetAttachment) LogicalID() string {
	return a.logicalID
}

// Source returns the secret the attachment was built from.
func (a *SecretTargetAttachment) Source() Secret {
	return a.source
}

// ImportedSecretTargetAttachment references an attachment managed outside the
// stack. No resource is emitted for it.
type ImportedSecretTargetAttachment struct {
	secretRef
}

// SecretTargetAttachmentFromArn references an externally-managed attachment
// by ARN. The entity behaves like an imported secret under the attachment's
// identifier.
func SecretTargetAttachmentFromArn(parent *construct.Scope, id, attachmentArn string) (*ImportedSecretTargetAttachment, error) {
	if attachmentArn == "" {
		return nil, errors.ConfigError{
			Field:      "secretTargetAttachmentSecretArn",
			Message:    "an imported attachment must supply its ARN",
			Suggestion: "Pass the ARN of the existing attachment",
		}
	}
	scope, err := parent.Child(id)
	if err != nil {
		return nil, err
	}
	return &ImportedSecretTargetAttachment{
		secretRef: secretRef{
			scope:      scope,
			arn:        attachmentArn,
			viaService: arnViaService(attachmentArn),
		},
	}, nil
}
