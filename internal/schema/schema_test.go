package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrdersIndexedFirst(t *testing.T) {
	s := Build(
		[]string{"Person", "Movie"},
		[]string{"ACTED_IN"},
		[]NodeSample{
			{Label: "Person", Properties: map[string]any{"name": "Keanu", "born": int64(1964)}},
			{Label: "Movie", Properties: map[string]any{"title": "The Matrix", "tags": []any{"sci-fi"}}},
		},
		[]RelSample{{Type: "ACTED_IN", Properties: map[string]any{"roles": []string{"Neo"}}}},
		[]Cardinality{
			{Start: "Person", Type: "ACTED_IN", End: "Movie"},
			{Start: "Ghost", Type: "ACTED_IN", End: "Movie"},
		},
		[]Index{
			{EntityType: "NODE", LabelsOrTypes: []string{"Person"}, Properties: []string{"name"}},
			{EntityType: "RELATIONSHIP", LabelsOrTypes: []string{"ACTED_IN"}, Properties: []string{"roles"}},
		},
	)

	person := s.Node("Person")
	require.NotNil(t, person)
	require.Len(t, person.Properties, 2)
	assert.Equal(t, Property{Key: "name", Type: TypeString, Value: "Keanu", Indexed: true}, person.Properties[0])
	assert.Equal(t, Property{Key: "born", Type: TypeInteger, Value: int64(1964)}, person.Properties[1])
	assert.Equal(t, []string{"ACTED_IN"}, person.OutgoingRelationships)
	assert.Empty(t, person.IncomingRelationships)

	movie := s.Node("Movie")
	assert.Equal(t, []string{"ACTED_IN"}, movie.IncomingRelationships)
	assert.Equal(t, TypeArray, movie.Properties[0].Type)

	rel := s.Relationship("ACTED_IN")
	assert.Equal(t, []string{"Person"}, rel.StartNodes)
	assert.Equal(t, []string{"Movie"}, rel.EndNodes)
	assert.True(t, rel.Properties[0].Indexed)
	assert.Equal(t, TypeArray, rel.Properties[0].Type)

	assert.Equal(t, []string{"Movie", "Person"}, s.Labels())
	assert.Equal(t, Summary{Labels: 2, Relationships: 1, Properties: 5, Indexed: 2}, s.Summarize())
}

func TestInferType(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"x", TypeString},
		{42, TypeInteger},
		{int64(42), TypeInteger},
		{1.5, TypeFloat},
		{true, TypeBoolean},
		{[]any{1}, TypeArray},
		{map[string]any{"a": 1}, TypeObject},
		{nil, TypeObject},
	}
	for _, c := range cases {
		got, _ := InferType(c.in)
		assert.Equal(t, c.want, got, "%#v", c.in)
	}
}

func TestNilSchemaIsEmpty(t *testing.T) {
	var s *Schema
	assert.True(t, s.IsEmpty())
	assert.Nil(t, s.Labels())
	assert.Nil(t, s.Node("Person"))
	assert.Nil(t, s.RelProperties("KNOWS"))
}

func TestParseJSONAndYAML(t *testing.T) {
	js := `{"nodes":{"Person":{"properties":[{"key":"name","type":"string","value":"Tom","indexed":true}],
"outgoingRelationships":["KNOWS"],"incomingRelationships":[]}},
"relationships":{"KNOWS":{"properties":[],"startNodes":["Person"],"endNodes":["Person"]}}}`
	s, err := Parse([]byte(js))
	require.NoError(t, err)
	assert.Equal(t, "Tom", s.NodeProperties("Person")[0].Value)
	assert.Equal(t, []string{"Person"}, s.Relationship("KNOWS").EndNodes)

	yml := `
nodes:
  Movie:
    properties:
      - key: released
        type: integer
        value: 1999
relationships: {}
`
	s, err = Parse([]byte(yml))
	require.NoError(t, err)
	require.Len(t, s.NodeProperties("Movie"), 1)
	assert.Equal(t, 1999, s.NodeProperties("Movie")[0].Value)

	_, err = Parse([]byte("{not json"))
	require.Error(t, err)

	s, err = Parse(nil)
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodes:\n  Person: {}\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, s.Node("Person"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
