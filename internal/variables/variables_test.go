package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/schema"
)

func movieSchema() *schema.Schema {
	s := schema.Empty()
	s.Nodes["Person"] = &schema.Node{Properties: []schema.Property{
		{Key: "name", Type: schema.TypeString, Value: "Keanu", Indexed: true},
		{Key: "born", Type: schema.TypeInteger, Value: int64(1964)},
	}}
	s.Nodes["Movie"] = &schema.Node{Properties: []schema.Property{
		{Key: "released", Type: schema.TypeInteger, Value: int64(1999)},
		{Key: "title", Type: schema.TypeString, Value: "The Matrix"},
	}}
	s.Relationships["ACTED_IN"] = &schema.Relationship{Properties: []schema.Property{
		{Key: "roles", Type: schema.TypeArray, Value: []any{"Neo"}},
	}}
	return s
}

func TestExtract(t *testing.T) {
	els := block.Elements{}
	rows := [][]string{
		{
			block.InsertClause(els, "MATCH"),
			block.InsertNode(els, "n", "Person"),
			block.InsertRelationship(els, "r", "ACTED_IN", block.Outgoing),
			block.InsertNode(els, "m", ""),
		},
		{
			block.InsertClause(els, "WHERE"),
			block.InsertComparison(els, "n.born", "1964", ">"),
			block.InsertStringComparison(els, "m.title", `"Matrix"`, ""),
		},
		{
			block.InsertClause(els, "RETURN"),
			block.InsertVariable(els, "n"),
			block.InsertVariable(els, "100"),
			block.InsertVariable(els, ""),
		},
	}

	got := Extract(rows, els)
	want := []Variable{
		{Text: "n", Classes: []string{ClassLabel, ClassText}, Types: []string{"Person", TypeText}},
		{Text: "r", Classes: []string{ClassRelType}, Types: []string{"ACTED_IN"}},
		{Text: "m", Classes: []string{ClassText}, Types: []string{TypeText}},
		{Text: "n.born", Classes: []string{ClassText}, Types: []string{TypeText}},
		{Text: "m.title", Classes: []string{ClassText}, Types: []string{TypeText}},
	}
	assert.Equal(t, want, got)
	assert.True(t, Equal(got, Extract(rows, els)))
}

func TestExtractSkipsUnknownIDs(t *testing.T) {
	els := block.Elements{}
	rows := [][]string{{"missing", block.InsertVariable(els, "x")}}
	got := Extract(rows, els)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Text)
}

func TestExtractStableUnderUnrelatedRows(t *testing.T) {
	els := block.Elements{}
	rows := [][]string{{block.InsertNode(els, "n", "Person")}}
	before := Extract(rows, els)

	rows = append(rows, []string{block.InsertClause(els, "RETURN"), block.InsertVariable(els, "42")})
	assert.True(t, Equal(before, Extract(rows, els)))
}

func TestIsLiteral(t *testing.T) {
	for _, s := range []string{"", " ", "0", "10", "1.5", "-3", `"text"`, "'a'", "`x`"} {
		assert.True(t, isLiteral(s), "%q", s)
	}
	for _, s := range []string{"n", "n.name", "[]", "null"} {
		assert.False(t, isLiteral(s), "%q", s)
	}
}

func TestAssignUniqueName(t *testing.T) {
	vars := []Variable{{Text: "n"}, {Text: "n2"}}

	name, ok := AssignUniqueName(vars, "n", 100)
	assert.True(t, ok)
	assert.Equal(t, "n3", name)

	name, ok = AssignUniqueName(vars, "m", 100)
	assert.True(t, ok)
	assert.Equal(t, "m", name)

	name, ok = AssignUniqueName(vars, "n", 2)
	assert.False(t, ok)
	assert.Equal(t, "n2", name)
}

func TestExpand(t *testing.T) {
	vars := []Variable{
		{Text: "n", Classes: []string{ClassLabel}, Types: []string{"Person"}},
		{Text: "r", Classes: []string{ClassRelType}, Types: []string{"ACTED_IN"}},
		{Text: "x", Classes: []string{ClassText}, Types: []string{TypeText}},
	}
	s := movieSchema()

	assert.Equal(t, []string{"n", "r", "x", "n.name", "n.born", "r.roles"}, Expand(vars, s, ExpandOptions{}))

	vars[0] = Variable{Text: "m", Classes: []string{ClassLabel}, Types: []string{"Movie"}}
	assert.Equal(t,
		[]string{"m", "r", "x", "m.released", "m.title", "r.roles"},
		Expand(vars, s, ExpandOptions{MaxPerType: 1, Descriptors: true}))

	assert.Equal(t, []string{"m", "r", "x"}, Expand(vars, nil, ExpandOptions{}))
}
