package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/cypher-builder/internal/sampling"
)

func (s *Server) handleRunQuery(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a struct {
		SessionID string `json:"session_id"`
		Query     string `json:"query"`
		connArgs
	}
	if err := decodeArgs(req, &a); err != nil {
		return errResult(err.Error()), nil
	}

	query := a.Query
	if query == "" && a.SessionID != "" {
		sess, err := s.sessions.Get(a.SessionID)
		if err != nil {
			return errResult(err.Error()), nil
		}
		query = sess.Cypher()
	}
	if strings.TrimSpace(query) == "" {
		return errResult("nothing to run: pass 'query' or a session with a non-empty query"), nil
	}

	c, err := s.resolveConnection(a.connArgs)
	if err != nil {
		return errResult(err.Error()), nil
	}
	runner, _, err := s.pool.Get(ctx, c)
	if err != nil {
		return errResult(fmt.Sprintf("connect: %v", err)), nil
	}
	result, err := sampling.RunQuery(ctx, runner, query)
	if err != nil {
		return errResult(fmt.Sprintf("query error: %v", err)), nil
	}
	s.touchConnection(c)

	return jsonResult(map[string]any{
		"query":   query,
		"columns": result.Keys,
		"rows":    result.Rows,
		"total":   len(result.Rows),
		"elapsed": result.Elapsed.String(),
	}), nil
}
