// Package builder holds the block/container state of a query builder and
// the operations that mutate it: palette selection, drag and drop, delete,
// sidebar refresh and wizard suggestions.
//
// Containers are laid out in three zones, in this order: SidebarCount
// sidebar palettes, FooterCount wizard palette, then the query rows. The
// last query row is always empty.
package builder

import (
	"slices"

	"github.com/DeusData/cypher-builder/internal/block"
)

// Zone sizes.
const (
	SidebarCount = 10
	FooterCount  = 1
	PaletteCount = SidebarCount + FooterCount
)

// Palette container indexes.
const (
	Clauses = iota
	Nodes
	Relationships
	BasicComparisons
	AdvancedComparisons
	Operators
	Variables
	Constants
	Controls
	Misc
	Wizard
)

// SidebarCategories are the display names of the sidebar palettes.
var SidebarCategories = []string{
	"Clauses", "Nodes", "Relationships", "Basic Comparisons", "More Comparisons",
	"Operators", "Variables", "Constants", "Query Controls", "Other",
}

// ClauseNames seeds the clause palette.
var ClauseNames = []string{"MATCH", "OPTIONAL MATCH", "WHERE", "WITH", "RETURN"}

// CaptionStart is shown while the query has no matching clause.
const CaptionStart = "Start by adding a matching pattern."

// State is the full builder model. Operations mutate it in place; use
// Clone or Apply for snapshot semantics.
type State struct {
	Containers [][]string     `json:"items"`
	Elements   block.Elements `json:"elements"`
	Active     string         `json:"active,omitempty"`
	Caption    string         `json:"caption"`

	// fresh holds ids dragged out of a palette during the current drag.
	fresh map[string]bool
}

// New returns a state with seeded palettes and one empty query row.
func New() *State {
	els := block.Elements{}
	containers := make([][]string, PaletteCount, PaletteCount+1)

	containers[Clauses] = block.InsertWords(els, block.KindClause, ClauseNames...)
	containers[Nodes] = []string{block.InsertNode(els, "n", "")}
	containers[Relationships] = []string{block.InsertRelationship(els, "r", "", block.Undirected)}
	containers[BasicComparisons] = []string{}
	containers[AdvancedComparisons] = []string{}

	ops := block.InsertWords(els, block.KindOperator,
		" AND ", " OR ", " XOR ", " NOT ", " EXISTS ", "+", "-", "*", "/", "%", "^")
	ops = append(ops, block.InsertWords(els, block.KindBracket, "(", ")")...)
	ops = append(ops, block.InsertOperator(els, ","))
	containers[Operators] = ops

	containers[Variables] = []string{}
	containers[Constants] = block.InsertWords(els, block.KindVariable, `"text"`, "0", "10", "100", "[]", "null")
	containers[Controls] = []string{
		block.InsertClause(els, "RETURN"),
		block.InsertClause(els, "WITH"),
		block.InsertOperator(els, " DISTINCT "),
		block.InsertTransformer(els, "SKIP ", "1000"),
		block.InsertTransformer(els, "LIMIT ", "1000"),
		block.InsertClause(els, "ORDER BY"),
		block.InsertOperator(els, "ASC"),
		block.InsertOperator(els, "DESC"),
		block.InsertClause(els, "UNION"),
		block.InsertClause(els, "UNWIND"),
		block.InsertFunction(els, "COLLECT", ""),
		block.InsertTransformer(els, "AS ", ""),
	}
	containers[Misc] = block.InsertWords(els, block.KindOperator, "CYPHER ", "PROFILE ", "EXPLAIN ")
	containers[Wizard] = block.InsertWords(els, block.KindClause, "MATCH", "MERGE")
	containers = append(containers, []string{})

	return &State{Containers: containers, Elements: els, Caption: CaptionStart}
}

// Clone returns a deep copy.
func (st *State) Clone() *State {
	c := &State{
		Containers: make([][]string, len(st.Containers)),
		Elements:   st.Elements.Clone(),
		Active:     st.Active,
		Caption:    st.Caption,
	}
	for i, row := range st.Containers {
		c.Containers[i] = slices.Clone(row)
	}
	if len(st.fresh) > 0 {
		c.fresh = make(map[string]bool, len(st.fresh))
		for id := range st.fresh {
			c.fresh[id] = true
		}
	}
	return c
}

// QueryRows returns the query zone containers.
func (st *State) QueryRows() [][]string {
	if len(st.Containers) <= PaletteCount {
		return nil
	}
	return st.Containers[PaletteCount:]
}

// Find returns the index of the container holding id, or -1.
func (st *State) Find(id string) int {
	for i, c := range st.Containers {
		if slices.Contains(c, id) {
			return i
		}
	}
	return -1
}

// IsPalette reports whether container index c is a sidebar or footer palette.
func IsPalette(c int) bool {
	return c >= 0 && c < PaletteCount
}

// OpenRow is the container index new blocks are appended to: the row
// before the trailing empty row, or the only query row.
func (st *State) OpenRow() int {
	n := len(st.Containers)
	if n-PaletteCount >= 2 {
		return n - 2
	}
	return PaletteCount
}

// TrailingRow returns the elements of the open row, used to detect when
// wizard suggestions must be recomputed.
func (st *State) TrailingRow() []*block.Element {
	open := st.OpenRow()
	if open >= len(st.Containers) {
		return nil
	}
	out := make([]*block.Element, 0, len(st.Containers[open]))
	for _, id := range st.Containers[open] {
		out = append(out, st.Elements[id])
	}
	return out
}

// replacePalette drops the elements of palette c and installs ids, copying
// their definitions from generated.
func (st *State) replacePalette(c int, ids []string, generated block.Elements) {
	for _, id := range st.Containers[c] {
		delete(st.Elements, id)
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if e, ok := generated[id]; ok {
			st.Elements[id] = e
			kept = append(kept, id)
		}
	}
	st.Containers[c] = kept
}

// ReplaceQuery substitutes the query zone with rows, copying their
// elements under fresh identifiers. Existing query elements are dropped.
func (st *State) ReplaceQuery(rows [][]string, els block.Elements) {
	st.clearQuery()
	for _, row := range rows {
		ids := make([]string, 0, len(row))
		for _, id := range row {
			e := els[id]
			if e == nil {
				continue
			}
			nid := block.NewID()
			st.Elements[nid] = e.Clone()
			ids = append(ids, nid)
		}
		st.Containers = append(st.Containers, ids)
	}
	st.maintain()
}

func (st *State) clearQuery() {
	for _, row := range st.QueryRows() {
		for _, id := range row {
			delete(st.Elements, id)
		}
	}
	if len(st.Containers) > PaletteCount {
		st.Containers = st.Containers[:PaletteCount]
	}
	st.Active = ""
	st.fresh = nil
}
