package builder

import (
	"slices"
	"strings"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/comparisons"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/variables"
)

// Context is the edit position the wizard derives from the query tail.
type Context int

const (
	ContextNone              Context = iota // no suggestion applies
	ContextEmpty                            // no clause yet, or after UNION
	ContextPatternStart                     // empty MATCH / MERGE / OPTIONAL MATCH
	ContextAfterNode                        // pattern ending in a node
	ContextAfterRelationship                // pattern ending in a relationship
	ContextFilterStart                      // WHERE without a comparison at the end
	ContextAfterFilter                      // WHERE ending in a comparison
	ContextProjectionStart                  // empty RETURN / WITH
	ContextAfterVariable                    // RETURN / WITH ending in a variable
	ContextAfterValue                       // RETURN / WITH ending in another block
	ContextListStart                        // empty UNWIND / ORDER BY
	ContextListContinue                     // non-empty UNWIND / ORDER BY
)

var contextNames = [...]string{
	"none", "empty", "pattern_start", "after_node", "after_relationship",
	"filter_start", "after_filter", "projection_start", "after_variable",
	"after_value", "list_start", "list_continue",
}

func (c Context) String() string {
	if int(c) < len(contextNames) {
		return contextNames[c]
	}
	return "unknown"
}

// Tail is the last clause and the last block of the query zone.
type Tail struct {
	Clause string
	Last   *block.Element
}

// Classify scans the query rows and returns the wizard context.
func Classify(rows [][]string, els block.Elements) (Context, Tail) {
	var t Tail
	for _, row := range rows {
		for _, id := range row {
			e := els[id]
			if e == nil {
				continue
			}
			t.Last = e
			if e.Kind == block.KindClause {
				t.Clause = e.Slot(0)
			}
		}
	}

	last := block.Kind("")
	if t.Last != nil {
		last = t.Last.Kind
	}
	switch t.Clause {
	case "", "UNION":
		return ContextEmpty, t
	case "MATCH", "MERGE", "OPTIONAL MATCH":
		switch last {
		case block.KindClause:
			return ContextPatternStart, t
		case block.KindNode:
			return ContextAfterNode, t
		case block.KindRelationship:
			return ContextAfterRelationship, t
		}
	case "WHERE":
		if last.IsComparison() {
			return ContextAfterFilter, t
		}
		return ContextFilterStart, t
	case "RETURN", "WITH":
		switch last {
		case block.KindClause:
			return ContextProjectionStart, t
		case block.KindVariable:
			return ContextAfterVariable, t
		}
		return ContextAfterValue, t
	case "UNWIND", "ORDER BY":
		if last == block.KindClause {
			return ContextListStart, t
		}
		return ContextListContinue, t
	}
	return ContextNone, t
}

// Suggestion is the wizard output for one context.
type Suggestion struct {
	Context  Context
	Caption  string
	IDs      []string
	Elements block.Elements
}

// Suggest builds the caption and suggested blocks for the current query.
func Suggest(rows [][]string, els block.Elements, vars []variables.Variable, s *schema.Schema, lim Limits) Suggestion {
	ctx, tail := Classify(rows, els)
	w := &wizard{
		gen:     block.Elements{},
		aliases: aliases{vars: vars, max: lim.AliasAttempts},
		vars:    vars,
		schema:  s,
	}
	caption := w.suggest(ctx, tail)
	return Suggestion{Context: ctx, Caption: caption, IDs: w.ids, Elements: w.gen}
}

// UpdateWizard replaces the footer palette with fresh suggestions and
// returns the caption.
func (st *State) UpdateWizard(vars []variables.Variable, s *schema.Schema, lim Limits) string {
	sg := Suggest(st.QueryRows(), st.Elements, vars, s, lim)
	st.replacePalette(Wizard, capIDs(sg.IDs, lim.Wizard), sg.Elements)
	st.Caption = sg.Caption
	return sg.Caption
}

type wizard struct {
	gen     block.Elements
	ids     []string
	aliases aliases
	vars    []variables.Variable
	schema  *schema.Schema
}

func (w *wizard) add(ids ...string) {
	w.ids = append(w.ids, ids...)
}

func (w *wizard) clauses(names ...string) {
	w.add(block.InsertWords(w.gen, block.KindClause, names...)...)
}

func (w *wizard) node(label string) {
	base := "n"
	if label != "" {
		base = initial(label)
	}
	w.add(block.InsertNode(w.gen, w.aliases.unique(base), label))
}

func (w *wizard) rel(relType string, dir block.Direction) {
	alias := ""
	if relType != "" {
		alias = w.aliases.unique(initial(relType))
	}
	w.add(block.InsertRelationship(w.gen, alias, relType, dir))
}

// expanded adds the variables and their first property paths. fallback is
// used when there is nothing to add.
func (w *wizard) expanded(fallback string) {
	texts := variables.Expand(w.vars, w.schema, variables.ExpandOptions{MaxPerType: 1, Descriptors: true})
	if len(texts) == 0 && fallback != "" {
		texts = []string{fallback}
	}
	for _, t := range texts {
		w.add(block.InsertVariable(w.gen, t))
	}
}

func (w *wizard) limit() {
	w.add(block.InsertTransformer(w.gen, "LIMIT ", "1000"))
}

func (w *wizard) alias(base string) {
	w.add(block.InsertTransformer(w.gen, "AS ", w.aliases.unique(base)))
}

func first[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func (w *wizard) suggest(ctx Context, t Tail) string {
	s := w.schema
	switch ctx {
	case ContextEmpty:
		w.clauses("MATCH", "MERGE")
		return CaptionStart

	case ContextPatternStart:
		w.node("")
		for _, label := range first(s.Labels(), 3) {
			w.node(label)
		}
		return "Add the nodes you want to match on."

	case ContextAfterNode:
		w.clauses("WHERE", "WITH", "RETURN")
		lastLabel := t.Last.Slot(block.NodeLabel)
		var outgoing, incoming []string
		for _, relType := range s.RelTypes() {
			r := s.Relationship(relType)
			if r == nil {
				continue
			}
			if slices.Contains(r.StartNodes, lastLabel) {
				outgoing = append(outgoing, relType)
			}
			if slices.Contains(r.EndNodes, lastLabel) {
				incoming = append(incoming, relType)
			}
		}
		if len(s.RelTypes()) == 0 {
			w.rel("", block.Outgoing)
		}
		for _, relType := range first(outgoing, 2) {
			w.rel(relType, block.Outgoing)
		}
		for _, relType := range first(incoming, 1) {
			w.rel(relType, block.Incoming)
		}
		for _, label := range first(s.Labels(), 2) {
			if label != lastLabel {
				w.node(label)
			}
		}
		return "Start filtering, or add more nodes and relationships to match."

	case ContextAfterRelationship:
		w.node("")
		if r := s.Relationship(t.Last.Slot(block.RelType)); r != nil {
			labels := r.EndNodes
			if t.Last.Slot(block.RelDirectionIn) == "<-" {
				labels = r.StartNodes
			}
			for _, label := range first(labels, 2) {
				w.node(label)
			}
		}
		return "Add a node at the end of the relationship pattern."

	case ContextFilterStart:
		res := comparisons.Generate(w.gen, w.vars, s, comparisons.Options{IndexedOnly: true, Placeholders: true})
		w.add(res.Basic...)
		for _, id := range res.Advanced {
			delete(w.gen, id)
		}
		return "Add in some filters to narrow down the results."

	case ContextAfterFilter:
		w.clauses("RETURN", "WITH")
		w.add(block.InsertWords(w.gen, block.KindOperator, " AND ", " OR ")...)
		return "Add more filters, or move on to return variables."

	case ContextProjectionStart:
		w.add(block.InsertOperator(w.gen, " DISTINCT "))
		w.expanded("text")
		return "Choose the variables you want to return."

	case ContextAfterVariable:
		name := t.Last.Slot(0)
		if t.Clause == "WITH" {
			w.clauses("RETURN", "MATCH")
		}
		w.clauses("ORDER BY")
		caption := "Add more variables, and a limit, if needed."
		if prop, ok := property(name); ok {
			caption = "Give the variable a name, or add more variables."
			w.alias(prop)
		}
		w.expanded("")
		w.limit()
		return caption

	case ContextAfterValue:
		if t.Last.Kind != block.KindOperator {
			w.clauses("ORDER BY")
		}
		if t.Last.Kind == block.KindFunction {
			w.alias(strings.ToLower(t.Last.Slot(0)))
		}
		if prop, ok := property(t.Last.Slot(0)); ok {
			w.alias(prop)
		}
		w.expanded("")
		w.limit()
		return "Add more variables, or specify an ordering."

	case ContextListStart:
		fallback := ""
		if len(w.vars) == 0 {
			fallback = `["text"]`
		}
		w.expanded(fallback)
		return listCaption(t.Clause)

	case ContextListContinue:
		w.limit()
		w.expanded("")
		return listCaption(t.Clause)
	}
	return ""
}

// property returns the segment after the first dot of a property path.
func property(path string) (string, bool) {
	_, rest, ok := strings.Cut(path, ".")
	if !ok {
		return "", false
	}
	prop, _, _ := strings.Cut(rest, ".")
	return prop, prop != ""
}

func listCaption(clause string) string {
	if clause == "ORDER BY" {
		return "Select variables to order by."
	}
	return "Select variables to unwind."
}
