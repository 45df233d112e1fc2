package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/cypher-builder/internal/cypher"
)

func (s *Server) handleListTemplates(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sess, err := s.resolveSession(args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	type entry struct {
		Index       int    `json:"index"`
		Description string `json:"description"`
		Cypher      string `json:"cypher"`
	}
	tpls := sess.Templates()
	out := make([]entry, 0, len(tpls))
	for i, t := range tpls {
		out = append(out, entry{Index: i, Description: t.Description, Cypher: t.Cypher})
	}
	return jsonResult(map[string]any{"templates": out, "total": len(out)}), nil
}

func (s *Server) handleApplyTemplate(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sess, err := s.resolveSession(args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	idx := getIntArg(args, "index", -1)
	t, err := sess.ApplyTemplate(idx)
	if err != nil {
		return errResult(fmt.Sprintf("apply template: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"description": t.Description,
		"state":       newStateView(sess.View()),
	}), nil
}

func (s *Server) handleRender(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sess, err := s.resolveSession(args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	text := sess.Cypher()
	out := map[string]any{"cypher": text}
	if getBoolArg(args, "highlight") {
		out["spans"] = cypher.Tokenize(text)
	}
	return jsonResult(out), nil
}
