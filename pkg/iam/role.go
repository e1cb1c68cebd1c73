package iam

import (
	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/pkg/cfn"
	"github.com/secretforge/secretforge/pkg/construct"
)

// RoleProps configures a declared role.
type RoleProps struct {
	// AssumedBy is the principal trusted to assume the role. Required.
	AssumedBy Principal
	// RoleName optionally pins the physical role name.
	RoleName string
	// Description is an optional human-readable description.
	Description string
}

// Role is a declared IAM role. Statements granted to the role accumulate in a
// default policy resource that is created on first use.
type Role struct {
	scope          *construct.Scope
	logicalID      string
	defaultPolicy  *PolicyDocument
	policyAttached bool
}

// NewRole declares an AWS::IAM::Role in the parent scope's stack.
func NewRole(parent *construct.Scope, id string, props RoleProps) (*Role, error) {
	if props.AssumedBy.IsZero() {
		return nil, errors.ConfigError{
			Field:      "assumedBy",
			Message:    "a role must name the principal trusted to assume it",
			Suggestion: "Set AssumedBy to a service or ARN principal",
		}
	}
	scope, err := parent.Child(id)
	if err != nil {
		return nil, err
	}

	assumeDoc := NewPolicyDocument()
	assumeDoc.AddStatement(
		NewPolicyStatement(EffectAllow).
			AddActions("sts:AssumeRole").
			AddPrincipals(props.AssumedBy),
	)

	properties := map[string]interface{}{
		"AssumeRolePolicyDocument": assumeDoc,
	}
	if props.RoleName != "" {
		properties["RoleName"] = props.RoleName
	}
	if props.Description != "" {
		properties["Description"] = props.Description
	}

	logicalID := scope.LogicalID()
	res := &cfn.Resource{
		Type:       "AWS::IAM::Role",
		Properties: properties,
	}
	if err := scope.Stack().Template().AddResource(logicalID, res); err != nil {
		return nil, err
	}

	return &Role{
		scope:         scope,
		logicalID:     logicalID,
		defaultPolicy: NewPolicyDocument(),
	}, nil
}

// RoleArn returns a token resolving to the role's ARN.
func (r *Role) RoleArn() cfn.Token {
	return cfn.GetAtt(r.logicalID, "Arn")
}

// LogicalID returns the role's logical ID within the template.
func (r *Role) LogicalID() string {
	return r.logicalID
}

// DefaultPolicy returns the document holding granted statements.
func (r *Role) DefaultPolicy() *PolicyDocument {
	return r.defaultPolicy
}

// AddToPolicy adds the statement to the role's default policy. The backing
// AWS::IAM::Policy resource is declared on the first statement.
func (r *Role) AddToPolicy(statement *PolicyStatement) bool {
	if !r.policyAttached {
		if err := r.attachDefaultPolicy(); err != nil {
			// A collision here means the scope already holds a child named
			// DefaultPolicy, which only happens on id misuse. Surface it as
			// an unattached grant rather than a panic.
			return false
		}
		r.policyAttached = true
	}
	r.defaultPolicy.AddStatement(statement)
	return true
}

func (r *Role) attachDefaultPolicy() error {
	policyScope, err := r.scope.Child("DefaultPolicy")
	if err != nil {
		return err
	}
	res := &cfn.Resource{
		Type: "AWS::IAM::Policy",
		Properties: map[string]interface{}{
			"PolicyName":     policyScope.LogicalID(),
			"PolicyDocument": r.defaultPolicy,
			"Roles":          []interface{}{cfn.Ref(r.logicalID)},
		},
	}
	return r.scope.Stack().Template().AddResource(policyScope.LogicalID(), res)
}

// ImportedRole references a role managed outside the stack. Its policy cannot
// be modified from here, so grants against it are recorded as unattached.
type ImportedRole struct {
	arn string
}

// RoleFromArn references an externally-managed role by ARN. No resource is
// emitted.
func RoleFromArn(arn string) *ImportedRole {
	return &ImportedRole{arn: arn}
}

// Arn returns the imported role's ARN string.
func (r *ImportedRole) Arn() string {
	return r.arn
}

// AddToPolicy always reports false: imported roles have no mutable policy.
func (r *ImportedRole) AddToPolicy(*PolicyStatement) bool {
	return false
}
