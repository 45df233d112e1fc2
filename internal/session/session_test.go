package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/cypher-builder/internal/builder"
	"github.com/DeusData/cypher-builder/internal/metrics"
	"github.com/DeusData/cypher-builder/internal/schema"
)

func movieSchema() *schema.Schema {
	return schema.Build(
		[]string{"Movie", "Person"},
		[]string{"ACTED_IN"},
		[]schema.NodeSample{
			{Label: "Person", Properties: map[string]any{"name": "Keanu"}},
			{Label: "Movie", Properties: map[string]any{"title": "The Matrix"}},
		},
		nil,
		[]schema.Cardinality{{Start: "Person", Type: "ACTED_IN", End: "Movie"}},
		nil,
	)
}

func contents(st *builder.State, c int) []string {
	out := make([]string, 0, len(st.Containers[c]))
	for _, id := range st.Containers[c] {
		out = append(out, st.Elements[id].Content())
	}
	return out
}

func paletteID(t *testing.T, s *Session, c int, content string) string {
	t.Helper()
	st := s.View().State
	for _, id := range st.Containers[c] {
		if st.Elements[id].Content() == content {
			return id
		}
	}
	t.Fatalf("no %q in palette %d: %v", content, c, contents(st, c))
	return ""
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.AnimationDelay = time.Hour
	return opts
}

func TestNewSessionPopulatesPalettes(t *testing.T) {
	opts := testOptions()
	opts.Schema = movieSchema()
	s := New("s1", opts)
	defer s.Close()

	v := s.View()
	assert.Equal(t, builder.CaptionStart, v.Caption)
	assert.Equal(t, []string{"MATCH", "MERGE"}, contents(v.State, builder.Wizard))
	assert.Equal(t, []string{"(n:)", "(m:Movie)", "(p:Person)"}, contents(v.State, builder.Nodes))
	assert.Equal(t, 2, v.Schema.Labels)
	assert.NotEmpty(t, s.Templates())
}

func TestApplyRunsPipeline(t *testing.T) {
	opts := testOptions()
	opts.Schema = movieSchema()
	s := New("s1", opts)
	defer s.Close()

	res, err := s.Apply(builder.Event{Type: builder.EventSelect, ID: paletteID(t, s, builder.Wizard, "MATCH")})
	require.NoError(t, err)
	require.True(t, res.Applied)
	assert.Equal(t, "MATCH", s.Cypher())
	assert.Equal(t, "Add the nodes you want to match on.", s.View().Caption)

	_, err = s.Apply(builder.Event{Type: builder.EventSelect, ID: paletteID(t, s, builder.Wizard, "(p:Person)")})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (p:Person)", s.Cypher())

	v := s.View()
	assert.Equal(t, []string{"p", "p.name"}, contents(v.State, builder.Variables))
	assert.Equal(t, []string{"(n:)", "(m:Movie)", "(p2:Person)"}, contents(v.State, builder.Nodes))
	assert.Contains(t, contents(v.State, builder.Wizard), "WHERE")
}

func TestApplyRejectsInvalidEvents(t *testing.T) {
	s := New("s1", testOptions())
	defer s.Close()

	_, err := s.Apply(builder.Event{Type: "explode"})
	require.Error(t, err)
	_, err = s.Apply(builder.Event{})
	require.Error(t, err)
}

func TestStaleSelectIsNoop(t *testing.T) {
	s := New("s1", testOptions())
	defer s.Close()

	res, err := s.Apply(builder.Event{Type: builder.EventSelect, ID: "gone"})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, []string{"MATCH", "MERGE"}, contents(s.View().State, builder.Wizard))
}

func TestAnimationRelease(t *testing.T) {
	opts := DefaultOptions()
	opts.AnimationDelay = 20 * time.Millisecond
	s := New("s1", opts)
	defer s.Close()

	res, err := s.Apply(builder.Event{Type: builder.EventSelect, ID: paletteID(t, s, builder.Wizard, "MATCH")})
	require.NoError(t, err)
	require.True(t, res.Applied)

	assert.Eventually(t, func() bool {
		v := s.View()
		e := v.State.Elements[res.ID]
		return e != nil && !e.Animated && v.State.Active == ""
	}, time.Second, 5*time.Millisecond)
}

func TestPipelineSkipsUnchangedInputs(t *testing.T) {
	c := metrics.New("test")
	p := Pipeline{Metrics: c}
	st := builder.New()
	s := movieSchema()

	first := p.Run(st, s, builder.DefaultLimits())
	assert.True(t, first.Variables)
	assert.True(t, first.Wizard)

	again := p.Run(st, s, builder.DefaultLimits())
	assert.False(t, again.Variables)
	assert.False(t, again.Wizard)
	assert.Equal(t, builder.CaptionStart, again.Caption)

	p.Invalidate()
	forced := p.Run(st, s, builder.DefaultLimits())
	assert.True(t, forced.Variables)
	assert.True(t, forced.Wizard)
}

func TestSetSchemaAndTemplates(t *testing.T) {
	s := New("s1", testOptions())
	defer s.Close()
	assert.Empty(t, s.Templates())

	s.SetSchema(movieSchema())
	tpls := s.Templates()
	require.NotEmpty(t, tpls)
	assert.Equal(t, []string{"(n:)", "(m:Movie)", "(p:Person)"}, contents(s.View().State, builder.Nodes))

	_, err := s.ApplyTemplate(len(tpls))
	require.ErrorIs(t, err, ErrNotFound)

	tpl, err := s.ApplyTemplate(0)
	require.NoError(t, err)
	assert.Equal(t, tpl.Cypher, s.Cypher())
	assert.Contains(t, contents(s.View().State, builder.Variables), "m")

	s.SetSchema(nil)
	assert.Empty(t, s.Templates())
	assert.Equal(t, tpl.Cypher, s.Cypher(), "query survives a schema change")
}

func TestManager(t *testing.T) {
	m := NewManager(testOptions())
	defer m.CloseAll()

	a := m.Create()
	b := m.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, m.IDs(), 2)

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	m.SetSchema(movieSchema())
	assert.NotEmpty(t, a.Templates())
	assert.NotEmpty(t, m.Create().Templates(), "new sessions inherit the schema")

	require.NoError(t, m.Close(a.ID))
	_, err = m.Get(a.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, m.Close(a.ID), ErrNotFound)
}
