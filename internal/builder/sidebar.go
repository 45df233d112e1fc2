package builder

import (
	"strings"
	"unicode/utf8"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/comparisons"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/variables"
)

// Limits caps the generated palettes.
type Limits struct {
	Nodes         int `json:"nodes" yaml:"nodes"`
	Relationships int `json:"relationships" yaml:"relationships"`
	Variables     int `json:"variables" yaml:"variables"`
	Wizard        int `json:"wizard" yaml:"wizard"`
	AliasAttempts int `json:"alias_attempts" yaml:"alias_attempts"`
}

// DefaultLimits returns the stock palette caps.
func DefaultLimits() Limits {
	return Limits{Nodes: 20, Relationships: 20, Variables: 25, Wizard: 20, AliasAttempts: 100}
}

func capIDs(ids []string, n int) []string {
	if n > 0 && len(ids) > n {
		return ids[:n]
	}
	return ids
}

// aliases hands out variable names that do not collide with vars.
type aliases struct {
	vars []variables.Variable
	max  int
}

func (a aliases) unique(base string) string {
	name, _ := variables.AssignUniqueName(a.vars, base, a.max)
	return name
}

// initial is the lowercased first character of s, the default alias base
// for a label or relationship type.
func initial(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToLower(string(r))
}

// RefreshVariables regenerates the variable, basic comparison and advanced
// comparison palettes from vars.
func (st *State) RefreshVariables(vars []variables.Variable, s *schema.Schema, lim Limits) {
	gen := block.Elements{}

	var ids []string
	for _, text := range variables.Expand(vars, s, variables.ExpandOptions{}) {
		ids = append(ids, block.InsertVariable(gen, text))
	}
	st.replacePalette(Variables, capIDs(ids, lim.Variables), gen)

	res := comparisons.Generate(gen, vars, s, comparisons.Options{Placeholders: true})
	st.replacePalette(BasicComparisons, capIDs(res.Basic, lim.Variables), gen)
	st.replacePalette(AdvancedComparisons, capIDs(res.Advanced, lim.Variables), gen)
}

// RefreshNodesRelationships regenerates the node and relationship palettes:
// one generic block plus one block per label or type, with aliases that do
// not collide with vars.
func (st *State) RefreshNodesRelationships(vars []variables.Variable, s *schema.Schema, lim Limits) {
	gen := block.Elements{}
	a := aliases{vars: vars, max: lim.AliasAttempts}

	nodes := []string{block.InsertNode(gen, a.unique("n"), "")}
	for _, label := range s.Labels() {
		if label == "" {
			continue
		}
		nodes = append(nodes, block.InsertNode(gen, a.unique(initial(label)), label))
	}
	st.replacePalette(Nodes, capIDs(nodes, lim.Nodes), gen)

	rels := []string{block.InsertRelationship(gen, a.unique("r"), "", block.Undirected)}
	for _, relType := range s.RelTypes() {
		if relType == "" {
			continue
		}
		rels = append(rels, block.InsertRelationship(gen, a.unique(initial(relType)), relType, block.Undirected))
	}
	st.replacePalette(Relationships, capIDs(rels, lim.Relationships), gen)
}
