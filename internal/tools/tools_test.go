package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/cypher-builder/internal/builder"
	"github.com/DeusData/cypher-builder/internal/connection"
	"github.com/DeusData/cypher-builder/internal/sampling"
	"github.com/DeusData/cypher-builder/internal/session"
	"github.com/DeusData/cypher-builder/internal/store"
)

const movieSchema = `{
  "nodes": {
    "Person": {"properties": [{"key": "name", "type": "string", "value": "Keanu", "indexed": true}],
               "outgoingRelationships": ["ACTED_IN"], "incomingRelationships": []},
    "Movie":  {"properties": [{"key": "title", "type": "string", "value": "The Matrix"}],
               "outgoingRelationships": [], "incomingRelationships": ["ACTED_IN"]}
  },
  "relationships": {
    "ACTED_IN": {"properties": [], "startNodes": ["Person"], "endNodes": ["Movie"]}
  }
}`

// graphRunner answers by query substring.
type graphRunner struct {
	queries []string
	fail    error
}

func (g *graphRunner) Run(_ context.Context, query string, _ map[string]any) (*neo4j.EagerResult, error) {
	g.queries = append(g.queries, query)
	if g.fail != nil {
		return nil, g.fail
	}
	rec := func(keys []string, vals ...any) *neo4j.Record {
		return &neo4j.Record{Keys: keys, Values: vals}
	}
	switch {
	case strings.Contains(query, "db.labels"):
		return &neo4j.EagerResult{Keys: []string{"label"}, Records: []*neo4j.Record{rec([]string{"label"}, "Person")}}, nil
	case strings.Contains(query, "Person"):
		k := []string{"properties"}
		return &neo4j.EagerResult{Keys: k, Records: []*neo4j.Record{rec(k, map[string]any{"name": "Ada"})}}, nil
	case strings.HasPrefix(query, "MATCH"):
		k := []string{"n"}
		return &neo4j.EagerResult{Keys: k, Records: []*neo4j.Record{rec(k, int64(1))}}, nil
	}
	return &neo4j.EagerResult{}, nil
}

func newTestServer(t *testing.T) (*Server, *graphRunner) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	g := &graphRunner{}
	pool := sampling.NewPool(sampling.DefaultOptions(), nil)
	pool.Dial = func(context.Context, connection.Connection) (sampling.Runner, error) {
		return g, nil
	}
	opts := session.DefaultOptions()
	m := session.NewManager(opts)
	t.Cleanup(m.CloseAll)
	return NewServer(m, st, pool, connection.Default()), g
}

func call(t *testing.T, h func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error), args any) (map[string]any, bool) {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res, err := h(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: raw}})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text := res.Content[0].(*mcp.TextContent).Text
	if res.IsError {
		return map[string]any{"error": text}, false
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out, true
}

func paletteID(t *testing.T, state map[string]any, category, text string) string {
	t.Helper()
	for _, b := range state["palettes"].(map[string]any)[category].([]any) {
		blk := b.(map[string]any)
		if blk["text"] == text {
			return blk["id"].(string)
		}
	}
	t.Fatalf("no %q block in %s", text, category)
	return ""
}

func TestBuildQueryThroughTools(t *testing.T) {
	srv, _ := newTestServer(t)

	state, ok := call(t, srv.handleNewSession, map[string]any{})
	require.True(t, ok)
	id := state["session_id"].(string)
	assert.Equal(t, builder.CaptionStart, state["caption"])

	_, ok = call(t, srv.handleLoadSchema, map[string]any{"session_id": id, "schema": movieSchema})
	require.True(t, ok)

	state, ok = call(t, srv.handleGetState, map[string]any{"session_id": id})
	require.True(t, ok)
	match := paletteID(t, state, "Clauses", "MATCH")
	out, ok := call(t, srv.handleSelectBlock, map[string]any{"session_id": id, "id": match})
	require.True(t, ok)
	assert.Equal(t, true, out["applied"])

	state = out["state"].(map[string]any)
	person := paletteID(t, state, "Nodes", "(p:Person)")
	out, ok = call(t, srv.handleSelectBlock, map[string]any{"session_id": id, "id": person})
	require.True(t, ok)

	rendered, ok := call(t, srv.handleRender, map[string]any{"session_id": id, "highlight": true})
	require.True(t, ok)
	assert.Equal(t, "MATCH (p:Person)", rendered["cypher"])
	assert.NotEmpty(t, rendered["spans"])

	// a drop on a target that no longer exists keeps the block
	nodeID := out["id"].(string)
	_, ok = call(t, srv.handleDragStart, map[string]any{"session_id": id, "id": nodeID})
	require.True(t, ok)
	out, ok = call(t, srv.handleDragEnd, map[string]any{"session_id": id, "id": nodeID, "over": "stale", "x": 10})
	require.True(t, ok)
	assert.Equal(t, false, out["applied"])
	assert.Equal(t, "MATCH (p:Person)", out["state"].(map[string]any)["cypher"])

	// drag the node onto the clause palette past the delete threshold
	_, ok = call(t, srv.handleDragStart, map[string]any{"session_id": id, "id": nodeID})
	require.True(t, ok)
	out, ok = call(t, srv.handleDragEnd, map[string]any{"session_id": id, "id": nodeID, "over": match, "x": 10})
	require.True(t, ok)
	assert.Equal(t, true, out["applied"])
	assert.Equal(t, "MATCH", out["state"].(map[string]any)["cypher"])

	out, ok = call(t, srv.handleResetQuery, map[string]any{"session_id": id})
	require.True(t, ok)
	assert.Equal(t, "", out["state"].(map[string]any)["cypher"])
}

func TestStateViewTextMatchesRender(t *testing.T) {
	st := builder.New()
	view := newStateView(session.View{ID: "s", State: st})

	var generic *blockInfo
	for i, b := range view.Palettes["Nodes"] {
		if b.Raw == "(n:)" {
			generic = &view.Palettes["Nodes"][i]
		}
	}
	require.NotNil(t, generic)
	assert.Equal(t, "(n)", generic.Text)

	_, ok := st.Select(view.Palettes["Clauses"][0].ID, builder.Rect{}, builder.Target{})
	require.True(t, ok)
	_, ok = st.Select(generic.ID, builder.Rect{}, builder.Target{})
	require.True(t, ok)
	view = newStateView(session.View{ID: "s", State: st})
	require.Len(t, view.Query[0], 2)
	assert.Equal(t, "(n)", view.Query[0][1].Text)
	assert.Equal(t, "(n:)", view.Query[0][1].Raw)
}

func TestEventErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	out, ok := call(t, srv.handleSelectBlock, map[string]any{"id": "x"})
	assert.False(t, ok)
	assert.Contains(t, out["error"], "session_id")

	out, ok = call(t, srv.handleSelectBlock, map[string]any{"session_id": "nope", "id": "x"})
	assert.False(t, ok)
	assert.Contains(t, out["error"], "not found")

	state, _ := call(t, srv.handleNewSession, map[string]any{})
	id := state["session_id"].(string)
	out, ok = call(t, srv.handleDeleteBlock, map[string]any{"session_id": id})
	assert.False(t, ok)
	assert.Contains(t, out["error"], "'id'")

	out, ok = call(t, srv.handleSelectBlock, map[string]any{"session_id": id, "id": "missing"})
	require.True(t, ok)
	assert.Equal(t, false, out["applied"])
}

func TestTemplates(t *testing.T) {
	srv, _ := newTestServer(t)
	_, ok := call(t, srv.handleLoadSchema, map[string]any{"schema": movieSchema})
	require.True(t, ok)

	state, _ := call(t, srv.handleNewSession, map[string]any{})
	id := state["session_id"].(string)

	list, ok := call(t, srv.handleListTemplates, map[string]any{"session_id": id})
	require.True(t, ok)
	tpls := list["templates"].([]any)
	require.NotEmpty(t, tpls)
	first := tpls[0].(map[string]any)

	out, ok := call(t, srv.handleApplyTemplate, map[string]any{"session_id": id, "index": 0})
	require.True(t, ok)
	assert.Equal(t, first["description"], out["description"])
	assert.Equal(t, first["cypher"], out["state"].(map[string]any)["cypher"])

	out, ok = call(t, srv.handleApplyTemplate, map[string]any{"session_id": id, "index": len(tpls)})
	assert.False(t, ok)
	assert.Contains(t, out["error"], "not found")
}

func TestSampleSchemaCachesSnapshot(t *testing.T) {
	srv, g := newTestServer(t)
	state, _ := call(t, srv.handleNewSession, map[string]any{})
	id := state["session_id"].(string)

	out, ok := call(t, srv.handleSampleSchema, map[string]any{"session_id": id, "name": "local"})
	require.True(t, ok, out["error"])
	assert.Equal(t, float64(1), out["schema"].(map[string]any)["labels"])
	assert.NotEmpty(t, g.queries)

	snap, err := srv.store.LoadSchema("local")
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, snap.Schema.Labels())

	list, ok := call(t, srv.handleListConnections, map[string]any{})
	require.True(t, ok)
	assert.Equal(t, float64(1), list["total"])

	other, _ := call(t, srv.handleNewSession, map[string]any{})
	_, ok = call(t, srv.handleLoadSchema, map[string]any{"session_id": other["session_id"], "connection": "local"})
	assert.True(t, ok)
}

func TestSampleSchemaFailureLeavesSession(t *testing.T) {
	srv, g := newTestServer(t)
	g.fail = errors.New("connection refused")
	state, _ := call(t, srv.handleNewSession, map[string]any{})
	id := state["session_id"].(string)

	out, ok := call(t, srv.handleSampleSchema, map[string]any{"session_id": id})
	assert.False(t, ok)
	assert.Contains(t, out["error"], "connection refused")

	after, _ := call(t, srv.handleGetState, map[string]any{"session_id": id})
	assert.Equal(t, float64(0), after["schema"].(map[string]any)["labels"])
}

func TestRunQuery(t *testing.T) {
	srv, g := newTestServer(t)

	out, ok := call(t, srv.handleRunQuery, map[string]any{})
	assert.False(t, ok)
	assert.Contains(t, out["error"], "nothing to run")

	out, ok = call(t, srv.handleRunQuery, map[string]any{"query": "MATCH (n) RETURN count(n) AS n"})
	require.True(t, ok, out["error"])
	assert.Equal(t, []any{"n"}, out["columns"])
	assert.Equal(t, float64(1), out["total"])
	assert.Contains(t, g.queries, "MATCH (n) RETURN count(n) AS n")
}

func TestSaveConnection(t *testing.T) {
	srv, _ := newTestServer(t)

	out, ok := call(t, srv.handleSaveConnection, map[string]any{
		"uri": "neo4j+s://demo.neo4jlabs.com:7687", "password": "secret",
	})
	require.True(t, ok, out["error"])
	assert.Equal(t, "neo4j@demo.neo4jlabs.com:7687/neo4j", out["key"])
	assert.Equal(t,
		"https://browser.neo4j.io/?connectURL=neo4j%2Bs%3A%2F%2Fneo4j%40demo.neo4jlabs.com%3A7687",
		out["browser_url"])
	assert.NotContains(t, out["connection"], "password")

	out, ok = call(t, srv.handleSaveConnection, map[string]any{"uri": "http://x:1"})
	assert.False(t, ok)
	assert.Contains(t, out["error"], "invalid connection")

	_, ok = call(t, srv.handleSaveConnection, map[string]any{})
	assert.False(t, ok)
}
