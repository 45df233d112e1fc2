// Package variables infers the in-scope query variables from the blocks
// placed in the query rows.
package variables

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/schema"
)

// Classes a variable can be bound under.
const (
	ClassLabel   = string(block.ClassLabel)
	ClassRelType = string(block.ClassRelType)
	ClassText    = "text"
)

// TypeText is the type of a variable that is not bound to a label or type.
const TypeText = "text"

// Variable is an inferred reference. Classes and Types keep first-seen order.
type Variable struct {
	Text    string   `json:"text"`
	Classes []string `json:"classes"`
	Types   []string `json:"types"`
}

// HasClass reports whether the variable was seen under class c.
func (v Variable) HasClass(c string) bool {
	return slices.Contains(v.Classes, c)
}

// Extract flattens rows in row-then-column order and merges every
// variable-class slot by text. Numeric values and quoted literals are
// skipped. Unknown ids are ignored.
func Extract(rows [][]string, els block.Elements) []Variable {
	var out []Variable
	index := make(map[string]int)

	for _, row := range rows {
		for _, id := range row {
			e := els[id]
			if e == nil {
				continue
			}
			class, typ := binding(e)
			comps := block.Components(e.Kind)
			for i, c := range comps {
				if c.Class != block.ClassVariable || i >= len(e.Text) {
					continue
				}
				text := e.Text[i]
				if isLiteral(text) {
					continue
				}
				at, ok := index[text]
				if !ok {
					at = len(out)
					index[text] = at
					out = append(out, Variable{Text: text})
				}
				v := &out[at]
				if !slices.Contains(v.Classes, class) {
					v.Classes = append(v.Classes, class)
				}
				if !slices.Contains(v.Types, typ) {
					v.Types = append(v.Types, typ)
				}
			}
		}
	}
	return out
}

// binding returns the class and type assigned to the variables of one
// element: the first label or reltype slot decides the class, and the
// non-empty label/reltype values form the type.
func binding(e *block.Element) (class, typ string) {
	var types []string
	class = ClassText
	for i, c := range block.Components(e.Kind) {
		if c.Class != block.ClassLabel && c.Class != block.ClassRelType {
			continue
		}
		if i >= len(e.Text) || e.Text[i] == "" {
			continue
		}
		if len(types) == 0 {
			class = string(c.Class)
		}
		types = append(types, e.Text[i])
	}
	switch len(types) {
	case 0:
		return ClassText, TypeText
	case 1:
		return class, types[0]
	}
	return class, strings.Join(types, ", ")
}

// isLiteral reports whether a slot value is a constant rather than a
// variable reference. Blank values count as numeric.
func isLiteral(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	if _, err := strconv.ParseFloat(t, 64); err == nil {
		return true
	}
	return strings.ContainsAny(text, "\"'`")
}

// Equal compares two variable lists by value.
func Equal(a, b []Variable) bool {
	return slices.EqualFunc(a, b, func(x, y Variable) bool {
		return x.Text == y.Text && slices.Equal(x.Classes, y.Classes) && slices.Equal(x.Types, y.Types)
	})
}

// Texts returns the variable names in order.
func Texts(vars []Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Text
	}
	return out
}

// AssignUniqueName returns base, or base followed by the smallest suffix
// 2, 3, ... that no variable uses. After maxAttempts suffixes the last
// candidate is returned with ok=false even if it collides.
func AssignUniqueName(vars []Variable, base string, maxAttempts int) (name string, ok bool) {
	taken := func(n string) bool {
		return slices.ContainsFunc(vars, func(v Variable) bool { return v.Text == n })
	}
	name = base
	for i := 1; taken(name); {
		if i >= maxAttempts {
			slog.Warn("variables.alias.cap", "base", base, "name", name, "attempts", maxAttempts)
			return name, false
		}
		i++
		name = base + strconv.Itoa(i)
	}
	return name, true
}

// ExpandOptions controls property path expansion.
type ExpandOptions struct {
	// MaxPerType limits how many properties are added per bound type.
	// Zero means all.
	MaxPerType int
	// Descriptors adds .name and .title when the type has them.
	Descriptors bool
}

// Expand lists every variable followed by the property paths of the labels
// and types it is bound to. Duplicates keep their first position.
func Expand(vars []Variable, s *schema.Schema, opts ExpandOptions) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(text string) {
		if !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
	}
	for _, v := range vars {
		add(v.Text)
	}
	for _, v := range vars {
		for _, class := range v.Classes {
			for _, typ := range v.Types {
				var props []schema.Property
				switch class {
				case ClassLabel:
					if s.Node(typ) == nil {
						continue
					}
					props = s.NodeProperties(typ)
				case ClassRelType:
					if s.Relationship(typ) == nil {
						continue
					}
					props = s.RelProperties(typ)
				default:
					continue
				}
				limited := props
				if opts.MaxPerType > 0 && len(limited) > opts.MaxPerType {
					limited = limited[:opts.MaxPerType]
				}
				for _, p := range limited {
					add(v.Text + "." + p.Key)
				}
				if opts.Descriptors && class == ClassLabel {
					for _, key := range []string{"name", "title"} {
						if schema.HasProperty(props, key) {
							add(v.Text + "." + key)
						}
					}
				}
			}
		}
	}
	return out
}
