// Package schema models the sampled graph schema consumed by the builder:
// node labels and relationship types with their property metadata.
package schema

import (
	"slices"
)

// Property types produced by inference.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Property is one sampled property of a label or relationship type.
type Property struct {
	Key     string `json:"key" yaml:"key"`
	Type    string `json:"type" yaml:"type"`
	Value   any    `json:"value" yaml:"value"`
	Indexed bool   `json:"indexed" yaml:"indexed"`
}

// Numeric reports whether the property holds an integer or float.
func (p Property) Numeric() bool {
	return p.Type == TypeInteger || p.Type == TypeFloat
}

// Node describes a node label.
type Node struct {
	Properties            []Property `json:"properties" yaml:"properties"`
	OutgoingRelationships []string   `json:"outgoingRelationships" yaml:"outgoingRelationships"`
	IncomingRelationships []string   `json:"incomingRelationships" yaml:"incomingRelationships"`
}

// Relationship describes a relationship type.
type Relationship struct {
	Properties []Property `json:"properties" yaml:"properties"`
	StartNodes []string   `json:"startNodes" yaml:"startNodes"`
	EndNodes   []string   `json:"endNodes" yaml:"endNodes"`
}

// Schema is read-only to the builder. A nil *Schema behaves as empty.
type Schema struct {
	Nodes         map[string]*Node         `json:"nodes" yaml:"nodes"`
	Relationships map[string]*Relationship `json:"relationships" yaml:"relationships"`
}

// Empty returns a schema with no labels and no relationship types.
func Empty() *Schema {
	return &Schema{Nodes: map[string]*Node{}, Relationships: map[string]*Relationship{}}
}

// Labels returns the node labels in sorted order.
func (s *Schema) Labels() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Nodes))
	for l := range s.Nodes {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// RelTypes returns the relationship types in sorted order.
func (s *Schema) RelTypes() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Relationships))
	for t := range s.Relationships {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Node returns the definition of label, or nil.
func (s *Schema) Node(label string) *Node {
	if s == nil || s.Nodes == nil {
		return nil
	}
	return s.Nodes[label]
}

// Relationship returns the definition of relType, or nil.
func (s *Schema) Relationship(relType string) *Relationship {
	if s == nil || s.Relationships == nil {
		return nil
	}
	return s.Relationships[relType]
}

// NodeProperties returns the properties of label, nil if unknown.
func (s *Schema) NodeProperties(label string) []Property {
	if n := s.Node(label); n != nil {
		return n.Properties
	}
	return nil
}

// RelProperties returns the properties of relType, nil if unknown.
func (s *Schema) RelProperties(relType string) []Property {
	if r := s.Relationship(relType); r != nil {
		return r.Properties
	}
	return nil
}

// HasProperty reports whether props contains key.
func HasProperty(props []Property, key string) bool {
	return slices.ContainsFunc(props, func(p Property) bool { return p.Key == key })
}

// IsEmpty reports whether the schema has neither labels nor types.
func (s *Schema) IsEmpty() bool {
	return s == nil || (len(s.Nodes) == 0 && len(s.Relationships) == 0)
}

// Summary is a short count used in logs and API responses.
type Summary struct {
	Labels        int `json:"labels"`
	Relationships int `json:"relationships"`
	Properties    int `json:"properties"`
	Indexed       int `json:"indexed"`
}

// Summarize counts labels, types and properties.
func (s *Schema) Summarize() Summary {
	var out Summary
	if s == nil {
		return out
	}
	out.Labels = len(s.Nodes)
	out.Relationships = len(s.Relationships)
	count := func(props []Property) {
		for _, p := range props {
			out.Properties++
			if p.Indexed {
				out.Indexed++
			}
		}
	}
	for _, n := range s.Nodes {
		if n != nil {
			count(n.Properties)
		}
	}
	for _, r := range s.Relationships {
		if r != nil {
			count(r.Properties)
		}
	}
	return out
}
