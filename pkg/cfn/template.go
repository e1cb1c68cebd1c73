package cfn

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FormatVersion is the CloudFormation template format version emitted by
// rendered templates.
const FormatVersion = "2010-09-09"

// Resource is a single declarative resource entry in a template.
type Resource struct {
	Type           string                 `json:"Type" yaml:"Type"`
	Properties     map[string]interface{} `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn      []string               `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy string                 `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
}

// Output is a template output entry.
type Output struct {
	Description string      `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       interface{} `json:"Value" yaml:"Value"`
}

// Template accumulates resources declared by constructs and renders them as a
// CloudFormation template fragment. Insertion is synchronous and single
// threaded; the dependency ordering between resources is carried entirely by
// Ref tokens and DependsOn edges, never by insertion order.
type Template struct {
	Description string
	resources   map[string]*Resource
	outputs     map[string]Output
}

// NewTemplate creates an empty template.
func NewTemplate(description string) *Template {
	return &Template{
		Description: description,
		resources:   make(map[string]*Resource),
		outputs:     make(map[string]Output),
	}
}

// AddResource registers a resource under its logical ID. Logical IDs are
// derived from construct paths and must be unique per template.
func (t *Template) AddResource(logicalID string, res *Resource) error {
	if logicalID == "" {
		return fmt.Errorf("logical ID must not be empty")
	}
	if _, exists := t.resources[logicalID]; exists {
		return fmt.Errorf("duplicate logical ID %q in template", logicalID)
	}
	t.resources[logicalID] = res
	return nil
}

// Resource returns the resource registered under the logical ID, or nil.
func (t *Template) Resource(logicalID string) *Resource {
	return t.resources[logicalID]
}

// ResourceCount returns the number of declared resources.
func (t *Template) ResourceCount() int {
	return len(t.resources)
}

// ResourcesOfType returns the logical IDs of all resources with the given
// CloudFormation type.
func (t *Template) ResourcesOfType(resourceType string) []string {
	var ids []string
	for id, res := range t.resources {
		if res.Type == resourceType {
			ids = append(ids, id)
		}
	}
	return ids
}

// AddOutput registers a template output.
func (t *Template) AddOutput(name string, out Output) {
	t.outputs[name] = out
}

// Output returns the output registered under the name, if any.
func (t *Template) Output(name string) (Output, bool) {
	out, ok := t.outputs[name]
	return out, ok
}

// document is the serializable template shape shared by JSON and YAML
// rendering. Map keys sort deterministically under both encoders.
func (t *Template) document() map[string]interface{} {
	doc := map[string]interface{}{
		"AWSTemplateFormatVersion": FormatVersion,
		"Resources":                t.resources,
	}
	if t.Description != "" {
		doc["Description"] = t.Description
	}
	if len(t.outputs) > 0 {
		doc["Outputs"] = t.outputs
	}
	return doc
}

// RenderJSON renders the template as indented JSON.
func (t *Template) RenderJSON() ([]byte, error) {
	data, err := json.MarshalIndent(t.document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render template JSON: %w", err)
	}
	return data, nil
}

// RenderYAML renders the template as YAML.
func (t *Template) RenderYAML() ([]byte, error) {
	// Round-trip through JSON so custom JSON marshalers (policy documents)
	// render the same shape in both formats.
	jsonData, err := json.Marshal(t.document())
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(jsonData, &generic); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to render template YAML: %w", err)
	}
	return data, nil
}
