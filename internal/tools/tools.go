package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/cypher-builder/internal/connection"
	"github.com/DeusData/cypher-builder/internal/sampling"
	"github.com/DeusData/cypher-builder/internal/session"
	"github.com/DeusData/cypher-builder/internal/store"
)

// Version is reported in the MCP implementation info.
var Version = "dev"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp      *mcp.Server
	sessions *session.Manager
	store    *store.Store // nil disables the cache tools
	pool     *sampling.Pool
	conn     connection.Connection
}

// NewServer creates a new MCP server with all tools registered. conn is
// the connection used when a tool call names none.
func NewServer(m *session.Manager, st *store.Store, pool *sampling.Pool, conn connection.Connection) *Server {
	srv := &Server{
		sessions: m,
		store:    st,
		pool:     pool,
		conn:     conn,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "cypher-builder",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

const sessionProp = `"session_id": {"type": "string", "description": "Session id returned by new_session"}`

const connectionProps = `
	"uri": {"type": "string", "description": "Connection URI, e.g. neo4j+s://demo.neo4jlabs.com:7687"},
	"name": {"type": "string", "description": "Saved connection name"},
	"database": {"type": "string"},
	"user": {"type": "string"},
	"password": {"type": "string", "description": "Never stored"}`

func objectSchema(props string, required ...string) json.RawMessage {
	req, _ := json.Marshal(required)
	if len(required) == 0 {
		req = []byte("[]")
	}
	return json.RawMessage(`{"type": "object", "properties": {` + props + `}, "required": ` + string(req) + `}`)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "new_session",
		Description: "Open a query builder session. The sidebar palettes are generated from the current schema. Returns the session id, the full block state, the rendered Cypher and the wizard caption.",
		InputSchema: objectSchema(""),
	}, s.handleNewSession)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_state",
		Description: "Return the block state, rendered Cypher and wizard caption of a session. Block text is what the block renders; raw joins every slot.",
		InputSchema: objectSchema(sessionProp, "session_id"),
	}, s.handleGetState)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "select_block",
		Description: "Click a palette block: a copy is appended to the open query row. Clause blocks start a new row when the open row has content. Returns the id of the copy.",
		InputSchema: objectSchema(sessionProp+`,
			"id": {"type": "string", "description": "Palette block id"}`, "session_id", "id"),
	}, s.handleSelectBlock)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "drag_start",
		Description: "Begin dragging a block. Dragging a palette block leaves a fresh copy in the palette.",
		InputSchema: objectSchema(sessionProp+`,
			"id": {"type": "string"}`, "session_id", "id"),
	}, s.handleDragStart)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "drag_over",
		Description: "Move the dragged block over another block or an empty query row (1-based).",
		InputSchema: objectSchema(sessionProp+`,
			"id": {"type": "string", "description": "Dragged block id"},
			"over": {"type": "string", "description": "Hovered block id"},
			"container": {"type": "integer", "description": "Hovered query row, 1-based"},
			"after": {"type": "boolean", "description": "Pointer is below the last block of the row"}`, "session_id", "id"),
	}, s.handleDragOver)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "drag_end",
		Description: "Drop the dragged block on the block named by over or on a query row. A drop on a palette with x under the delete threshold deletes the block; an unknown target leaves it in place.",
		InputSchema: objectSchema(sessionProp+`,
			"id": {"type": "string"},
			"over": {"type": "string"},
			"container": {"type": "integer"},
			"after": {"type": "boolean"},
			"x": {"type": "number", "description": "Pointer x coordinate in pixels"}`, "session_id", "id"),
	}, s.handleDragEnd)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_block",
		Description: "Remove a block from the query zone. Palette blocks cannot be deleted.",
		InputSchema: objectSchema(sessionProp+`,
			"id": {"type": "string"}`, "session_id", "id"),
	}, s.handleDeleteBlock)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "set_slot",
		Description: "Edit the text of a query block slot. Option slots only accept one of their options; fixed slots and palette blocks never change.",
		InputSchema: objectSchema(sessionProp+`,
			"id": {"type": "string"},
			"slot": {"type": "integer", "description": "0-based slot index"},
			"value": {"type": "string"}`, "session_id", "id", "slot", "value"),
	}, s.handleSetSlot)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "reset_query",
		Description: "Clear the query zone, leaving one empty row.",
		InputSchema: objectSchema(sessionProp, "session_id"),
	}, s.handleResetQuery)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "load_schema",
		Description: "Install a schema from a JSON or YAML document, or from a connection's cached snapshot. Without session_id the schema becomes the default of every session.",
		InputSchema: objectSchema(sessionProp+`,
			"schema": {"type": "string", "description": "JSON or YAML schema document"},
			"path": {"type": "string", "description": "Schema file path"},
			"connection": {"type": "string", "description": "Saved connection key whose cached schema is loaded"}`),
	}, s.handleLoadSchema)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "sample_schema",
		Description: "Sample the schema of a live database (labels, relationship types, indexes, properties, cardinalities) and install it. On failure the session is left untouched.",
		InputSchema: objectSchema(sessionProp+`,`+connectionProps),
	}, s.handleSampleSchema)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_templates",
		Description: "List the query templates generated from the session schema.",
		InputSchema: objectSchema(sessionProp, "session_id"),
	}, s.handleListTemplates)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "apply_template",
		Description: "Replace the query zone with template number index.",
		InputSchema: objectSchema(sessionProp+`,
			"index": {"type": "integer"}`, "session_id", "index"),
	}, s.handleApplyTemplate)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "render",
		Description: "Render the query zone as Cypher text. With highlight=true the token spans are returned as well.",
		InputSchema: objectSchema(sessionProp+`,
			"highlight": {"type": "boolean"}`, "session_id"),
	}, s.handleRender)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "run_query",
		Description: "Run the rendered Cypher of a session (or the given query) against the database with read-only routing. The text is not validated first.",
		InputSchema: objectSchema(sessionProp+`,
			"query": {"type": "string"},`+connectionProps),
	}, s.handleRunQuery)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "save_connection",
		Description: "Validate and cache a connection descriptor. The password is not stored. Returns the key and the query console URL.",
		InputSchema: objectSchema(`
			"protocol": {"type": "string", "enum": ["neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc"]},
			"port": {"type": "integer"},`+connectionProps, "uri"),
	}, s.handleSaveConnection)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_connections",
		Description: "List cached connection descriptors, most recently used first.",
		InputSchema: objectSchema(""),
	}, s.handleListConnections)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// decodeArgs unmarshals the raw JSON arguments into v.
func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}

// resolveSession looks up the session named by the session_id argument.
func (s *Server) resolveSession(args map[string]any) (*session.Session, error) {
	id := getStringArg(args, "session_id")
	if id == "" {
		return nil, fmt.Errorf("missing required 'session_id' parameter")
	}
	return s.sessions.Get(id)
}
