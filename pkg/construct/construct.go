// Package construct implements the declaration tree that all secretforge
// entities are parented to. Every entity is created against an explicit
// parent scope; there is no process-global registry.
package construct

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/secretforge/secretforge/internal/errors"
	"github.com/secretforge/secretforge/pkg/cfn"
)

// Scope is a node in the construct tree. A scope knows its parent, its id,
// and the stack that owns the template it contributes resources to.
type Scope struct {
	parent   *Scope
	id       string
	stack    *Stack
	children map[string]struct{}
}

// Child creates a nested scope. The id must be non-empty and unique among the
// parent's children; violations are configuration errors raised immediately.
func (s *Scope) Child(id string) (*Scope, error) {
	if id == "" {
		return nil, errors.ConfigError{
			Field:      "id",
			Message:    "construct id must not be empty",
			Suggestion: "Give every construct a stable, unique id within its scope",
		}
	}
	if _, exists := s.children[id]; exists {
		return nil, errors.ConfigError{
			Field:      "id",
			Value:      id,
			Message:    fmt.Sprintf("construct id already used in scope '%s'", s.Path()),
			Suggestion: "Choose an id that is unique within the parent scope",
		}
	}
	s.children[id] = struct{}{}
	return &Scope{
		parent:   s,
		id:       id,
		stack:    s.stack,
		children: make(map[string]struct{}),
	}, nil
}

// ID returns the scope's id within its parent.
func (s *Scope) ID() string {
	return s.id
}

// Path returns the slash-joined path from the stack root to this scope.
func (s *Scope) Path() string {
	if s.parent == nil {
		return s.id
	}
	return s.parent.Path() + "/" + s.id
}

// Stack returns the stack this scope belongs to.
func (s *Scope) Stack() *Stack {
	return s.stack
}

// LogicalID derives the CloudFormation logical ID for a resource declared at
// this scope: the sanitized path segments (stack name excluded) joined and
// suffixed with an 8-hex-digit hash of the full path. Deterministic across
// runs so re-declaring the same tree yields the same identifiers.
func (s *Scope) LogicalID() string {
	var segments []string
	for n := s; n.parent != nil; n = n.parent {
		segments = append([]string{sanitize(n.id)}, segments...)
	}
	joined := strings.Join(segments, "")
	if len(joined) > 240 {
		joined = joined[:240]
	}
	sum := sha256.Sum256([]byte(s.Path()))
	return joined + strings.ToUpper(hex.EncodeToString(sum[:4]))
}

func sanitize(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Stack is the root of a construct tree. It owns the template that child
// constructs add their resources to.
type Stack struct {
	root     *Scope
	template *cfn.Template
}

// NewStack creates a stack with the given name and an empty template.
func NewStack(name string) (*Stack, error) {
	if name == "" {
		return nil, errors.ConfigError{
			Field:      "name",
			Message:    "stack name must not be empty",
			Suggestion: "Name the stack after the deployment it describes",
		}
	}
	st := &Stack{template: cfn.NewTemplate("")}
	st.root = &Scope{
		id:       name,
		stack:    st,
		children: make(map[string]struct{}),
	}
	return st, nil
}

// Name returns the stack name.
func (st *Stack) Name() string {
	return st.root.id
}

// Scope returns the stack's root scope, the parent for top-level constructs.
func (st *Stack) Scope() *Scope {
	return st.root
}

// Template returns the stack's template.
func (st *Stack) Template() *cfn.Template {
	return st.template
}

// Region returns a token resolving to the deployment region.
func (st *Stack) Region() cfn.Token {
	return cfn.Ref("AWS::Region")
}
