package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a schema document. JSON objects are detected by a leading
// '{'; anything else is decoded as YAML.
func Parse(data []byte) (*Schema, error) {
	s := Empty()
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return s, nil
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, s); err != nil {
			return nil, fmt.Errorf("parse json schema: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, s); err != nil {
		return nil, fmt.Errorf("parse yaml schema: %w", err)
	}
	s.normalize()
	return s, nil
}

// Load reads and parses a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// normalize fills nil maps and entries so lookups never see nil.
func (s *Schema) normalize() {
	if s.Nodes == nil {
		s.Nodes = map[string]*Node{}
	}
	if s.Relationships == nil {
		s.Relationships = map[string]*Relationship{}
	}
	for k, n := range s.Nodes {
		if n == nil {
			s.Nodes[k] = &Node{}
		}
	}
	for k, r := range s.Relationships {
		if r == nil {
			s.Relationships[k] = &Relationship{}
		}
	}
}
