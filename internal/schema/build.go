package schema

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// NodeSample holds the properties of one sampled node of a label.
type NodeSample struct {
	Label      string
	Properties map[string]any
}

// RelSample holds the properties of one sampled relationship of a type.
type RelSample struct {
	Type       string
	Properties map[string]any
}

// Cardinality records that relType connects start to end.
type Cardinality struct {
	Start string
	Type  string
	End   string
}

// Index is one row of SHOW INDEXES.
type Index struct {
	EntityType    string // NODE or RELATIONSHIP
	LabelsOrTypes []string
	Properties    []string
}

type indexKey struct {
	entity, name, prop string
}

// Build assembles a schema from sampled parts. Property keys are ordered
// alphabetically, then indexed properties are moved first (stable).
// Cardinalities that reference unknown labels or types are ignored.
func Build(labels, relTypes []string, nodes []NodeSample, rels []RelSample, cards []Cardinality, indexes []Index) *Schema {
	indexed := make(map[indexKey]bool)
	for _, ix := range indexes {
		for _, name := range ix.LabelsOrTypes {
			for _, p := range ix.Properties {
				indexed[indexKey{ix.EntityType, name, p}] = true
			}
		}
	}

	s := Empty()
	for _, label := range labels {
		var props map[string]any
		for _, n := range nodes {
			if n.Label == label {
				props = n.Properties
				break
			}
		}
		s.Nodes[label] = &Node{
			Properties:            buildProperties(props, "NODE", label, indexed),
			OutgoingRelationships: []string{},
			IncomingRelationships: []string{},
		}
	}
	for _, relType := range relTypes {
		var props map[string]any
		for _, r := range rels {
			if r.Type == relType {
				props = r.Properties
				break
			}
		}
		s.Relationships[relType] = &Relationship{
			Properties: buildProperties(props, "RELATIONSHIP", relType, indexed),
			StartNodes: []string{},
			EndNodes:   []string{},
		}
	}

	for _, c := range cards {
		start, end, rel := s.Nodes[c.Start], s.Nodes[c.End], s.Relationships[c.Type]
		if start == nil || end == nil || rel == nil {
			continue
		}
		start.OutgoingRelationships = append(start.OutgoingRelationships, c.Type)
		end.IncomingRelationships = append(end.IncomingRelationships, c.Type)
		rel.StartNodes = append(rel.StartNodes, c.Start)
		rel.EndNodes = append(rel.EndNodes, c.End)
	}
	return s
}

func buildProperties(values map[string]any, entity, name string, indexed map[indexKey]bool) []Property {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	props := make([]Property, 0, len(keys))
	for _, k := range keys {
		typ, v := InferType(values[k])
		props = append(props, Property{
			Key:     k,
			Type:    typ,
			Value:   v,
			Indexed: indexed[indexKey{entity, name, k}],
		})
	}
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].Indexed && !props[j].Indexed
	})
	return props
}

// InferType maps a sampled driver value to a property type and the value
// to keep as sample. Temporal values become ISO-8601 strings.
func InferType(v any) (string, any) {
	switch x := v.(type) {
	case string:
		return TypeString, x
	case bool:
		return TypeBoolean, x
	case int:
		return TypeInteger, int64(x)
	case int32:
		return TypeInteger, int64(x)
	case int64:
		return TypeInteger, x
	case float32:
		return TypeFloat, float64(x)
	case float64:
		return TypeFloat, x
	case time.Time:
		return TypeString, x.Format(time.RFC3339)
	case []any:
		return TypeArray, x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return TypeArray, out
	case map[string]any:
		return TypeObject, x
	case fmt.Stringer:
		return TypeString, x.String()
	case nil:
		return TypeObject, nil
	}
	return TypeObject, fmt.Sprint(v)
}
