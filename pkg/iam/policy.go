// Package iam models declarative access-policy statements and the principals
// they attach to. Statements are pure in-memory descriptors rendered into the
// stack template; no permission is checked or enforced at build time.
package iam

import "encoding/json"

// PolicyDocumentVersion is the policy language version for emitted documents.
const PolicyDocumentVersion = "2012-10-17"

// Effect is a policy statement effect.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Principal identifies who a statement applies to.
type Principal struct {
	kind  string
	value interface{}
}

// ServicePrincipal returns a principal for an AWS service identity, for
// example "lambda.amazonaws.com".
func ServicePrincipal(service string) Principal {
	return Principal{kind: "Service", value: service}
}

// ArnPrincipal returns a principal for an IAM identity ARN.
func ArnPrincipal(arn string) Principal {
	return Principal{kind: "AWS", value: arn}
}

// AccountRootPrincipal returns the account root principal of the deployment
// account, resolved at deploy time.
func AccountRootPrincipal() Principal {
	return Principal{
		kind:  "AWS",
		value: map[string]interface{}{"Fn::Sub": "arn:${AWS::Partition}:iam::${AWS::AccountId}:root"},
	}
}

// IsZero reports whether the principal is unset.
func (p Principal) IsZero() bool {
	return p.kind == ""
}

// PolicyStatement is a single access-policy statement. Statements stay live
// after being added to a document: callers holding the pointer may keep
// refining actions and conditions until the template is rendered.
type PolicyStatement struct {
	effect     Effect
	actions    []string
	resources  []interface{}
	principals []Principal
	conditions map[string]map[string]interface{}
}

// NewPolicyStatement creates a statement with the given effect.
func NewPolicyStatement(effect Effect) *PolicyStatement {
	return &PolicyStatement{effect: effect}
}

// AddActions appends actions to the statement.
func (s *PolicyStatement) AddActions(actions ...string) *PolicyStatement {
	s.actions = append(s.actions, actions...)
	return s
}

// AddResources appends resource identifiers. A resource may be a plain ARN
// string or a late-bound template token.
func (s *PolicyStatement) AddResources(resources ...interface{}) *PolicyStatement {
	s.resources = append(s.resources, resources...)
	return s
}

// AddPrincipals appends principals to the statement.
func (s *PolicyStatement) AddPrincipals(principals ...Principal) *PolicyStatement {
	s.principals = append(s.principals, principals...)
	return s
}

// AddCondition records a condition under the given operator and context key.
func (s *PolicyStatement) AddCondition(operator, key string, value interface{}) *PolicyStatement {
	if s.conditions == nil {
		s.conditions = make(map[string]map[string]interface{})
	}
	if s.conditions[operator] == nil {
		s.conditions[operator] = make(map[string]interface{})
	}
	s.conditions[operator][key] = value
	return s
}

// Actions returns the statement's actions.
func (s *PolicyStatement) Actions() []string {
	return s.actions
}

// Resources returns the statement's resource identifiers.
func (s *PolicyStatement) Resources() []interface{} {
	return s.resources
}

// Condition returns the value recorded under the operator and key, or nil.
func (s *PolicyStatement) Condition(operator, key string) interface{} {
	if s.conditions == nil || s.conditions[operator] == nil {
		return nil
	}
	return s.conditions[operator][key]
}

// HasConditions reports whether any condition is recorded.
func (s *PolicyStatement) HasConditions() bool {
	return len(s.conditions) > 0
}

func (s *PolicyStatement) render() map[string]interface{} {
	effect := s.effect
	if effect == "" {
		effect = EffectAllow
	}
	doc := map[string]interface{}{
		"Effect": string(effect),
	}
	if len(s.actions) > 0 {
		doc["Action"] = s.actions
	}
	if len(s.resources) > 0 {
		doc["Resource"] = s.resources
	}
	if len(s.principals) > 0 {
		principal := make(map[string][]interface{})
		for _, p := range s.principals {
			principal[p.kind] = append(principal[p.kind], p.value)
		}
		doc["Principal"] = principal
	}
	if len(s.conditions) > 0 {
		doc["Condition"] = s.conditions
	}
	return doc
}

// MarshalJSON renders the statement in policy-language shape.
func (s *PolicyStatement) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.render())
}

// PolicyDocument accumulates statements. Documents are rendered lazily, so a
// document placed in a template keeps reflecting statements added afterwards.
type PolicyDocument struct {
	statements []*PolicyStatement
}

// NewPolicyDocument creates an empty document.
func NewPolicyDocument() *PolicyDocument {
	return &PolicyDocument{}
}

// AddStatement appends a statement to the document.
func (d *PolicyDocument) AddStatement(statement *PolicyStatement) {
	d.statements = append(d.statements, statement)
}

// Statements returns the document's statements.
func (d *PolicyDocument) Statements() []*PolicyStatement {
	return d.statements
}

// StatementCount returns the number of statements in the document.
func (d *PolicyDocument) StatementCount() int {
	return len(d.statements)
}

// MarshalJSON renders the document in policy-language shape.
func (d *PolicyDocument) MarshalJSON() ([]byte, error) {
	statements := d.statements
	if statements == nil {
		statements = []*PolicyStatement{}
	}
	return json.Marshal(map[string]interface{}{
		"Version":   PolicyDocumentVersion,
		"Statement": statements,
	})
}
