// Package kms models encryption keys as declarative references. A key is
// either declared within the stack or imported by ARN; both variants can
// grant decrypt access to a principal.
package kms

import (
	"github.com/secretforge/secretforge/pkg/cfn"
	"github.com/secretforge/secretforge/pkg/construct"
	"github.com/secretforge/secretforge/pkg/iam"
)

// Key is the shared behavior of declared and imported encryption keys.
type Key interface {
	// KeyArn returns the key's ARN, either a plain string or a token.
	KeyArn() interface{}
	// GrantDecrypt permits the grantee to decrypt with this key.
	GrantDecrypt(grantee iam.Grantable) *iam.Grant
	// GrantEncryptDecrypt permits the grantee to encrypt and decrypt.
	GrantEncryptDecrypt(grantee iam.Grantable) *iam.Grant
}

var decryptActions = []string{"kms:Decrypt"}

var encryptDecryptActions = []string{
	"kms:Decrypt",
	"kms:Encrypt",
	"kms:ReEncrypt*",
	"kms:GenerateDataKey*",
}

func grant(grantee iam.Grantable, keyArn interface{}, actions []string) *iam.Grant {
	statement := iam.NewPolicyStatement(iam.EffectAllow).
		AddActions(actions...).
		AddResources(keyArn)
	return iam.NewGrant(grantee, statement, keyArn)
}

// KeyProps configures a declared key.
type KeyProps struct {
	// Description is an optional human-readable description.
	Description string
	// EnableKeyRotation turns on yearly provider-side key rotation.
	EnableKeyRotation bool
}

// ManagedKey is a key declared within the stack.
type ManagedKey struct {
	logicalID string
}

// NewKey declares an AWS::KMS::Key with a default policy granting the account
// root full administrative access.
func NewKey(parent *construct.Scope, id string, props KeyProps) (*ManagedKey, error) {
	scope, err := parent.Child(id)
	if err != nil {
		return nil, err
	}

	keyPolicy := iam.NewPolicyDocument()
	keyPolicy.AddStatement(
		iam.NewPolicyStatement(iam.EffectAllow).
			AddActions("kms:*").
			AddResources("*").
			AddPrincipals(iam.AccountRootPrincipal()),
	)

	properties := map[string]interface{}{
		"KeyPolicy": keyPolicy,
	}
	if props.Description != "" {
		properties["Description"] = props.Description
	}
	if props.EnableKeyRotation {
		properties["EnableKeyRotation"] = true
	}

	logicalID := scope.LogicalID()
	res := &cfn.Resource{
		Type:       "AWS::KMS::Key",
		Properties: properties,
	}
	if err := scope.Stack().Template().AddResource(logicalID, res); err != nil {
		return nil, err
	}

	return &ManagedKey{logicalID: logicalID}, nil
}

// KeyArn returns a token resolving to the declared key's ARN.
func (k *ManagedKey) KeyArn() interface{} {
	return cfn.GetAtt(k.logicalID, "Arn")
}

// LogicalID returns the key's logical ID within the template.
func (k *ManagedKey) LogicalID() string {
	return k.logicalID
}

// GrantDecrypt permits the grantee to decrypt with this key.
func (k *ManagedKey) GrantDecrypt(grantee iam.Grantable) *iam.Grant {
	return grant(grantee, k.KeyArn(), decryptActions)
}

// GrantEncryptDecrypt permits the grantee to encrypt and decrypt.
func (k *ManagedKey) GrantEncryptDecrypt(grantee iam.Grantable) *iam.Grant {
	return grant(grantee, k.KeyArn(), encryptDecryptActions)
}

// ImportedKey references a key managed outside the stack. No resource is
// emitted for it.
type ImportedKey struct {
	arn string
}

// KeyFromArn references an externally-managed key by ARN. The ARN is carried
// verbatim; identifier validation belongs to the deployment layer.
func KeyFromArn(arn string) *ImportedKey {
	return &ImportedKey{arn: arn}
}

// KeyArn returns the imported key's ARN string.
func (k *ImportedKey) KeyArn() interface{} {
	return k.arn
}

// GrantDecrypt permits the grantee to decrypt with this key.
func (k *ImportedKey) GrantDecrypt(grantee iam.Grantable) *iam.Grant {
	return grant(grantee, k.arn, decryptActions)
}

// GrantEncryptDecrypt permits the grantee to encrypt and decrypt.
func (k *ImportedKey) GrantEncryptDecrypt(grantee iam.Grantable) *iam.Grant {
	return grant(grantee, k.arn, encryptDecryptActions)
}
