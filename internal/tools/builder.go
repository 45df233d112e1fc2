package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/cypher-builder/internal/block"
	"github.com/DeusData/cypher-builder/internal/builder"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/session"
)

// blockInfo describes one block. Text is what the block contributes to the
// rendered query; Raw joins every slot, including suppressed ones.
type blockInfo struct {
	ID   string     `json:"id"`
	Kind block.Kind `json:"kind"`
	Text string     `json:"text"`
	Raw  string     `json:"raw"`
}

// stateView is the agent-facing form of a session: palettes by category
// name and the query rows, each block reduced to id, kind and text.
type stateView struct {
	SessionID string                 `json:"session_id"`
	Cypher    string                 `json:"cypher"`
	Caption   string                 `json:"caption"`
	Palettes  map[string][]blockInfo `json:"palettes"`
	Wizard    []blockInfo            `json:"wizard"`
	Query     [][]blockInfo          `json:"query"`
	Schema    schema.Summary         `json:"schema"`
}

func blocks(ids []string, els block.Elements) []blockInfo {
	out := make([]blockInfo, 0, len(ids))
	for _, id := range ids {
		e := els[id]
		if e == nil {
			continue
		}
		out = append(out, blockInfo{ID: id, Kind: e.Kind, Text: e.Rendered(), Raw: e.Content()})
	}
	return out
}

func newStateView(v session.View) stateView {
	st := v.State
	out := stateView{
		SessionID: v.ID,
		Cypher:    v.Cypher,
		Caption:   v.Caption,
		Palettes:  make(map[string][]blockInfo, builder.SidebarCount),
		Schema:    v.Schema,
	}
	for i, name := range builder.SidebarCategories {
		out.Palettes[name] = blocks(st.Containers[i], st.Elements)
	}
	out.Wizard = blocks(st.Containers[builder.Wizard], st.Elements)
	for _, row := range st.QueryRows() {
		out.Query = append(out.Query, blocks(row, st.Elements))
	}
	return out
}

func (s *Server) handleNewSession(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.sessions.Create()
	return jsonResult(newStateView(sess.View())), nil
}

func (s *Server) handleGetState(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sess, err := s.resolveSession(args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(newStateView(sess.View())), nil
}

type eventArgs struct {
	SessionID string `json:"session_id"`
	builder.Event
}

// applyEvent decodes the tool arguments into an event of type t and
// applies it to the named session.
func (s *Server) applyEvent(req *mcp.CallToolRequest, t builder.EventType) (*mcp.CallToolResult, error) {
	var a eventArgs
	if err := decodeArgs(req, &a); err != nil {
		return errResult(err.Error()), nil
	}
	if a.SessionID == "" {
		return errResult("missing required 'session_id' parameter"), nil
	}
	if a.ID == "" && t != builder.EventReset {
		return errResult("missing required 'id' parameter"), nil
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return errResult(err.Error()), nil
	}
	a.Type = t
	res, err := sess.Apply(a.Event)
	if err != nil {
		return errResult(fmt.Sprintf("%s: %v", t, err)), nil
	}
	return jsonResult(map[string]any{
		"applied": res.Applied,
		"id":      res.ID,
		"state":   newStateView(sess.View()),
	}), nil
}

func (s *Server) handleSelectBlock(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyEvent(req, builder.EventSelect)
}

func (s *Server) handleDragStart(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyEvent(req, builder.EventDragStart)
}

func (s *Server) handleDragOver(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyEvent(req, builder.EventDragOver)
}

func (s *Server) handleDragEnd(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyEvent(req, builder.EventDragEnd)
}

func (s *Server) handleDeleteBlock(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyEvent(req, builder.EventDelete)
}

func (s *Server) handleSetSlot(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyEvent(req, builder.EventSetSlot)
}

func (s *Server) handleResetQuery(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.applyEvent(req, builder.EventReset)
}
