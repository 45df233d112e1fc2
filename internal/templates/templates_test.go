package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/cypher-builder/internal/cypher"
	"github.com/DeusData/cypher-builder/internal/schema"
)

func movieSchema() *schema.Schema {
	return schema.Build(
		[]string{"Movie", "Person"},
		[]string{"ACTED_IN", "FOLLOWS"},
		[]schema.NodeSample{
			{Label: "Person", Properties: map[string]any{"name": "Keanu", "born": int64(1964)}},
			{Label: "Movie", Properties: map[string]any{"title": "The Matrix", "released": int64(1999)}},
		},
		[]schema.RelSample{{Type: "ACTED_IN", Properties: map[string]any{"roles": []any{"Neo"}}}},
		[]schema.Cardinality{
			{Start: "Person", Type: "ACTED_IN", End: "Movie"},
			{Start: "Person", Type: "FOLLOWS", End: "Person"},
		},
		[]schema.Index{{EntityType: "NODE", LabelsOrTypes: []string{"Person"}, Properties: []string{"name"}}},
	)
}

func TestBuildMovies(t *testing.T) {
	got := Build(movieSchema())

	want := []struct{ description, cypher string }{
		{"Find all Movie nodes and return their properties.",
			"MATCH (m:Movie)\nRETURN m.released, m.title"},
		{"Find Movie nodes where released is 1999.",
			"MATCH (m:Movie)\nWHERE m.released = 1999\nRETURN m"},
		{"Find Movie nodes with the top 10 values for property released.",
			"MATCH (m:Movie)\nRETURN m.released\nORDER BY m.released DESC\nLIMIT 10"},
		{`Find Movie nodes where title contains "The Matrix".`,
			"MATCH (m:Movie)\nWHERE m.title CONTAINS \"The Matrix\"\nRETURN m"},
		{"Find Movie nodes that have an incoming relationship of type ACTED_IN where released is 1999.",
			"MATCH (m:Movie)<-[a:ACTED_IN]-(p:Person)\nWHERE m.released = 1999\nRETURN m, a, p"},
		{"Find all Person nodes and return their properties.",
			"MATCH (p:Person)\nRETURN p.name, p.born"},
		{`Find Person nodes where name is "Keanu".`,
			"MATCH (p:Person)\nWHERE p.name = \"Keanu\"\nRETURN p"},
		{"Find Person nodes with the top 10 values for property born.",
			"MATCH (p:Person)\nRETURN p.name, p.born\nORDER BY p.born DESC\nLIMIT 10"},
		{`Find Person nodes where name contains "Keanu".`,
			"MATCH (p:Person)\nWHERE p.name CONTAINS \"Keanu\"\nRETURN p"},
		{`Find Person nodes that have an outgoing relationship of type ACTED_IN where name is "Keanu".`,
			"MATCH (p:Person)-[a:ACTED_IN]->(m:Movie)\nWHERE p.name = \"Keanu\"\nRETURN p, a, m"},
		{`Find ACTED_IN relationships where property roles is ["Neo"].`,
			"MATCH (p:Person)-[a:ACTED_IN]->(m:Movie)\nWHERE a.roles = [\"Neo\"]\nRETURN p, a, m"},
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.description, got[i].Description, "template %d", i)
		assert.Equal(t, w.cypher, got[i].Cypher, "template %d", i)
	}
}

func TestTemplatesAreSelfContained(t *testing.T) {
	for _, tpl := range Build(movieSchema()) {
		for _, row := range tpl.Items {
			for _, id := range row {
				require.Contains(t, tpl.Elements, id)
			}
		}
		assert.Equal(t, tpl.Cypher, cypher.Render(tpl.Items, tpl.Elements, 0))
	}
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil))
	assert.Empty(t, Build(schema.Empty()))
}

func TestBuildLabelWithoutProperties(t *testing.T) {
	s := schema.Build([]string{"Tag"}, nil, nil, nil, nil, nil)
	got := Build(s)
	require.Len(t, got, 1)
	assert.Equal(t, "MATCH (t:Tag)\nRETURN", got[0].Cypher)
}

func TestIncomingSkipsSelfLoops(t *testing.T) {
	s := schema.Build(
		[]string{"Person"}, []string{"FOLLOWS"},
		[]schema.NodeSample{{Label: "Person", Properties: map[string]any{"name": "a"}}},
		nil,
		[]schema.Cardinality{{Start: "Person", Type: "FOLLOWS", End: "Person"}},
		nil,
	)
	var patterns int
	for _, tpl := range Build(s) {
		if tpl.Description == "Find Person nodes that have an incoming relationship of type FOLLOWS where name is \"a\"." {
			patterns++
		}
	}
	assert.Zero(t, patterns)
}
