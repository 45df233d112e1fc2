package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/cypher-builder/internal/schema"
)

// installSchema sets sc on the named session, or on every session and
// future ones when sessionID is empty.
func (s *Server) installSchema(sessionID string, sc *schema.Schema) (*mcp.CallToolResult, error) {
	if sessionID == "" {
		s.sessions.SetSchema(sc)
		return jsonResult(map[string]any{
			"scope":    "all",
			"sessions": len(s.sessions.IDs()),
			"schema":   sc.Summarize(),
		}), nil
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sess.SetSchema(sc)
	return jsonResult(map[string]any{
		"scope":     "session",
		"schema":    sc.Summarize(),
		"templates": len(sess.Templates()),
		"state":     newStateView(sess.View()),
	}), nil
}

func (s *Server) handleLoadSchema(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	sessionID := getStringArg(args, "session_id")
	if sessionID != "" {
		if _, err := s.sessions.Get(sessionID); err != nil {
			return errResult(err.Error()), nil
		}
	}

	var sc *schema.Schema
	switch {
	case getStringArg(args, "schema") != "":
		sc, err = schema.Parse([]byte(getStringArg(args, "schema")))
	case getStringArg(args, "path") != "":
		sc, err = schema.Load(getStringArg(args, "path"))
	case getStringArg(args, "connection") != "":
		if s.store == nil {
			return errResult("connection cache disabled"), nil
		}
		snap, loadErr := s.store.LoadSchema(getStringArg(args, "connection"))
		if loadErr != nil {
			return errResult(fmt.Sprintf("cached schema: %v", loadErr)), nil
		}
		sc = snap.Schema
	default:
		return errResult("one of 'schema', 'path' or 'connection' is required"), nil
	}
	if err != nil {
		return errResult(fmt.Sprintf("load schema: %v", err)), nil
	}
	return s.installSchema(sessionID, sc)
}

func (s *Server) handleSampleSchema(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a struct {
		SessionID string `json:"session_id"`
		connArgs
	}
	if err := decodeArgs(req, &a); err != nil {
		return errResult(err.Error()), nil
	}
	if a.SessionID != "" {
		if _, err := s.sessions.Get(a.SessionID); err != nil {
			return errResult(err.Error()), nil
		}
	}
	c, err := s.resolveConnection(a.connArgs)
	if err != nil {
		return errResult(err.Error()), nil
	}
	_, sampler, err := s.pool.Get(ctx, c)
	if err != nil {
		return errResult(fmt.Sprintf("connect: %v", err)), nil
	}
	sc, err := sampler.Sample(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("sample schema: %v", err)), nil
	}

	key := s.touchConnection(c)
	if s.store != nil {
		if err := s.store.SaveSchema(key, sc); err != nil {
			slog.Warn("tools.schema.cache", "connection", key, "err", err)
		}
	}
	return s.installSchema(a.SessionID, sc)
}
