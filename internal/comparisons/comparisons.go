// Package comparisons generates candidate filter blocks for the properties
// of bound variables, using the sampled schema values.
package comparisons

import (
	"fmt"
	"strconv"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/variables"
)

// Options controls generation.
type Options struct {
	// IndexedOnly restricts property comparisons to indexed properties.
	IndexedOnly bool
	// Placeholders adds one empty "v = " comparison per variable.
	Placeholders bool
}

// Result holds the ids of the generated elements, in generation order.
type Result struct {
	Basic    []string
	Advanced []string
}

// Generate inserts candidate comparisons into els.
func Generate(els block.Elements, vars []variables.Variable, s *schema.Schema, opts Options) Result {
	var res Result
	if opts.Placeholders {
		for _, v := range vars {
			res.Basic = append(res.Basic, block.InsertComparison(els, v.Text, "", "="))
		}
	}
	for _, v := range vars {
		for _, class := range v.Classes {
			for _, typ := range v.Types {
				var props []schema.Property
				switch class {
				case variables.ClassLabel:
					props = s.NodeProperties(typ)
				case variables.ClassRelType:
					props = s.RelProperties(typ)
				default:
					continue
				}
				for _, p := range props {
					if opts.IndexedOnly && !p.Indexed {
						continue
					}
					key := v.Text + "." + p.Key
					res.Basic = append(res.Basic, basic(els, key, p)...)
					res.Advanced = append(res.Advanced, advanced(els, key, p)...)
				}
			}
		}
	}
	return res
}

func basic(els block.Elements, key string, p schema.Property) []string {
	return []string{block.InsertComparison(els, key, Literal(p), "=")}
}

func advanced(els block.Elements, key string, p schema.Property) []string {
	value := Literal(p)
	switch {
	case p.Type == schema.TypeString:
		return []string{
			block.InsertComparison(els, key, value, "<>"),
			block.InsertStringComparison(els, key, value, " CONTAINS "),
			block.InsertStringComparison(els, key, value, " STARTS WITH "),
			block.InsertNullComparison(els, key),
		}
	case p.Numeric():
		return []string{
			block.InsertComparison(els, key, value, "<>"),
			block.InsertComparison(els, key, value, "<"),
			block.InsertComparison(els, key, value, ">"),
		}
	case p.Type == schema.TypeArray:
		return []string{block.InsertFunction(els, "size", key)}
	}
	return []string{block.InsertComparison(els, key, value, "=")}
}

// Literal renders the sampled value of p as query text: strings are double
// quoted and arrays become a one-element list of their first value.
func Literal(p schema.Property) string {
	switch p.Type {
	case schema.TypeString:
		return `"` + FormatValue(p.Value) + `"`
	case schema.TypeArray:
		var first any
		if arr, ok := p.Value.([]any); ok && len(arr) > 0 {
			first = arr[0]
		}
		return `["` + FormatValue(first) + `"]`
	}
	if p.Value == nil {
		return "null"
	}
	return FormatValue(p.Value)
}

// FormatValue prints a sampled scalar without quoting.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
