// Package templates synthesizes small example queries from a schema. Each
// template carries its own elements and rows so it can be substituted into
// the query zone of a builder.
package templates

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/comparisons"
	"github.com/DeusData/cypher-builder/internal/cypher"
	"github.com/DeusData/cypher-builder/internal/schema"
)

// Template is one pre-built query.
type Template struct {
	Description string         `json:"description"`
	Cypher      string         `json:"cypher"`
	Elements    block.Elements `json:"elements"`
	Items       [][]string     `json:"items"`
}

// Build returns the templates for s, in label order then relationship
// type order. A nil or empty schema yields none.
func Build(s *schema.Schema) []Template {
	var out []Template
	for _, label := range s.Labels() {
		out = append(out, forLabel(s, label)...)
	}
	for _, relType := range s.RelTypes() {
		out = append(out, forRelType(s, relType)...)
	}
	return out
}

func forLabel(s *schema.Schema, label string) []Template {
	n := s.Node(label)
	props := n.Properties
	matchable := preferred(props, func(p schema.Property) bool { return p.Indexed })

	out := []Template{matchAll(label, props)}
	for _, p := range matchable {
		out = append(out, matchWhere(label, p))
	}
	if orderable := preferred(props, func(p schema.Property) bool { return p.Type == schema.TypeInteger }); len(orderable) > 0 {
		out = append(out, orderBy(label, matchable, orderable[0]))
	}
	if strs := preferred(props, func(p schema.Property) bool { return p.Type == schema.TypeString }); len(strs) > 0 {
		out = append(out, contains(label, strs[len(strs)-1]))
	}

	if len(n.OutgoingRelationships) > 0 && len(matchable) > 0 {
		relType := n.OutgoingRelationships[0]
		if r := s.Relationship(relType); r != nil {
			for _, end := range r.EndNodes {
				out = append(out, nodePattern(label, matchable[0], relType, end, true))
			}
		}
	}
	if len(n.IncomingRelationships) > 0 {
		relType := n.IncomingRelationships[0]
		if r := s.Relationship(relType); r != nil {
			for _, start := range r.StartNodes {
				if start == label {
					continue
				}
				for _, p := range first(matchable, 2) {
					out = append(out, nodePattern(label, p, relType, start, false))
				}
			}
		}
	}
	return out
}

func forRelType(s *schema.Schema, relType string) []Template {
	r := s.Relationship(relType)
	if len(r.Properties) == 0 {
		return nil
	}
	matchable := first(preferred(r.Properties, func(p schema.Property) bool { return p.Indexed }), 1)
	var out []Template
	for _, start := range r.StartNodes {
		for _, end := range r.EndNodes {
			for _, p := range matchable {
				out = append(out, relWhere(start, p, relType, end))
			}
		}
	}
	return out
}

// preferred returns the properties matching keep, or the first property
// when none does.
func preferred(props []schema.Property, keep func(schema.Property) bool) []schema.Property {
	var out []schema.Property
	for _, p := range props {
		if keep(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 && len(props) > 0 {
		return props[:1]
	}
	return out
}

func first[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// alias is the lowercased first letter of a label or type. Template
// aliases are not made unique.
func alias(name string) string {
	for _, r := range name {
		return strings.ToLower(string(r))
	}
	return ""
}

type draft struct {
	els  block.Elements
	rows [][]string
}

func newDraft() *draft {
	return &draft{els: block.Elements{}}
}

func (d *draft) line(ids ...string) {
	d.rows = append(d.rows, ids)
}

func (d *draft) done(description string) Template {
	return Template{
		Description: description,
		Cypher:      cypher.Render(d.rows, d.els, 0),
		Elements:    d.els,
		Items:       d.rows,
	}
}

func matchAll(label string, props []schema.Property) Template {
	d := newDraft()
	a := alias(label)
	d.line(block.InsertClause(d.els, "MATCH"), block.InsertNode(d.els, a, label))
	ret := []string{block.InsertClause(d.els, "RETURN")}
	for _, p := range props {
		ret = append(ret, block.InsertVariable(d.els, a+"."+p.Key))
	}
	d.line(ret...)
	return d.done("Find all " + label + " nodes and return their properties.")
}

func matchWhere(label string, p schema.Property) Template {
	d := newDraft()
	a := alias(label)
	value := comparisons.Literal(p)
	d.line(block.InsertClause(d.els, "MATCH"), block.InsertNode(d.els, a, label))
	d.line(block.InsertClause(d.els, "WHERE"), block.InsertComparison(d.els, a+"."+p.Key, value, "="))
	d.line(block.InsertClause(d.els, "RETURN"), block.InsertVariable(d.els, a))
	return d.done(fmt.Sprintf("Find %s nodes where %s is %s.", label, p.Key, value))
}

func contains(label string, p schema.Property) Template {
	d := newDraft()
	a := alias(label)
	value := comparisons.Literal(p)
	d.line(block.InsertClause(d.els, "MATCH"), block.InsertNode(d.els, a, label))
	d.line(block.InsertClause(d.els, "WHERE"), block.InsertStringComparison(d.els, a+"."+p.Key, value, " CONTAINS "))
	d.line(block.InsertClause(d.els, "RETURN"), block.InsertVariable(d.els, a))
	return d.done(fmt.Sprintf("Find %s nodes where %s contains %s.", label, p.Key, value))
}

func orderBy(label string, matchable []schema.Property, p schema.Property) Template {
	d := newDraft()
	a := alias(label)
	d.line(block.InsertClause(d.els, "MATCH"), block.InsertNode(d.els, a, label))
	ret := []string{block.InsertClause(d.els, "RETURN")}
	for _, m := range matchable {
		ret = append(ret, block.InsertVariable(d.els, a+"."+m.Key))
	}
	if !slices.ContainsFunc(matchable, func(m schema.Property) bool { return m.Key == p.Key }) {
		ret = append(ret, block.InsertVariable(d.els, a+"."+p.Key))
	}
	d.line(ret...)
	d.line(
		block.InsertClause(d.els, "ORDER BY"),
		block.InsertVariable(d.els, a+"."+p.Key),
		block.InsertOperator(d.els, " DESC"),
	)
	d.line(block.InsertTransformer(d.els, "LIMIT ", "10"))
	return d.done(fmt.Sprintf("Find %s nodes with the top 10 values for property %s.", label, p.Key))
}

func nodePattern(label string, p schema.Property, relType, other string, outgoing bool) Template {
	d := newDraft()
	na, ra, oa := alias(label), alias(relType), alias(other)
	dir, word := block.Outgoing, "outgoing"
	if !outgoing {
		dir, word = block.Incoming, "incoming"
	}
	value := comparisons.Literal(p)
	d.line(
		block.InsertClause(d.els, "MATCH"),
		block.InsertNode(d.els, na, label),
		block.InsertRelationship(d.els, ra, relType, dir),
		block.InsertNode(d.els, oa, other),
	)
	d.line(block.InsertClause(d.els, "WHERE"), block.InsertComparison(d.els, na+"."+p.Key, value, "="))
	d.line(
		block.InsertClause(d.els, "RETURN"),
		block.InsertVariable(d.els, na),
		block.InsertVariable(d.els, ra),
		block.InsertVariable(d.els, oa),
	)
	return d.done(fmt.Sprintf("Find %s nodes that have an %s relationship of type %s where %s is %s.",
		label, word, relType, p.Key, value))
}

func relWhere(start string, p schema.Property, relType, end string) Template {
	d := newDraft()
	na, ra, oa := alias(start), alias(relType), alias(end)
	value := comparisons.Literal(p)
	d.line(
		block.InsertClause(d.els, "MATCH"),
		block.InsertNode(d.els, na, start),
		block.InsertRelationship(d.els, ra, relType, block.Outgoing),
		block.InsertNode(d.els, oa, end),
	)
	d.line(block.InsertClause(d.els, "WHERE"), block.InsertComparison(d.els, ra+"."+p.Key, value, "="))
	d.line(
		block.InsertClause(d.els, "RETURN"),
		block.InsertVariable(d.els, na),
		block.InsertVariable(d.els, ra),
		block.InsertVariable(d.els, oa),
	)
	return d.done(fmt.Sprintf("Find %s relationships where property %s is %s.", relType, p.Key, value))
}
