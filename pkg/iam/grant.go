package iam

// Grantable is anything with an identity policy that statements can be added
// to. AddToPolicy reports whether the statement was actually attached;
// identities imported by reference have no mutable policy and return false.
type Grantable interface {
	AddToPolicy(statement *PolicyStatement) bool
}

// Grant describes a permission that was granted. It carries the statement
// actually emitted so callers can keep refining it (extra conditions, extra
// actions) before the template is rendered.
type Grant struct {
	// Statement is the policy statement added to the grantee's policy.
	Statement *PolicyStatement
	// Grantee is the principal the statement was offered to.
	Grantee Grantable
	// Resource is the identifier the statement was scoped to.
	Resource interface{}
	// AttachedToPrincipal reports whether the grantee accepted the statement.
	AttachedToPrincipal bool
}

// NewGrant offers the statement to the grantee and returns the descriptor.
func NewGrant(grantee Grantable, statement *PolicyStatement, resource interface{}) *Grant {
	return &Grant{
		Statement:           statement,
		Grantee:             grantee,
		Resource:            resource,
		AttachedToPrincipal: grantee.AddToPolicy(statement),
	}
}
