package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/cypher-builder/internal/connection"
	"github.com/DeusData/cypher-builder/internal/store"
)

type connArgs struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
}

func (a connArgs) empty() bool {
	return a == connArgs{}
}

// resolveConnection builds a descriptor from tool arguments. A name that
// matches a cached connection starts from that descriptor; otherwise the
// server default is the base.
func (s *Server) resolveConnection(a connArgs) (connection.Connection, error) {
	c := s.conn
	if a.Name != "" && s.store != nil {
		saved, err := s.store.GetConnection(a.Name)
		switch {
		case err == nil:
			c = saved.Connection
			c.Password = s.conn.Password
		case !errors.Is(err, store.ErrNotFound):
			return c, err
		}
	}
	if a.URI != "" {
		var err error
		if c, err = connection.ParseURI(c, a.URI); err != nil {
			return c, err
		}
	}
	if a.Name != "" {
		c.Name = a.Name
	}
	if a.Protocol != "" {
		c.Protocol = a.Protocol
	}
	if a.Port != 0 {
		c.Port = a.Port
	}
	if a.Database != "" {
		c.Database = a.Database
	}
	if a.User != "" {
		c.User = a.User
	}
	if a.Password != "" {
		c.Password = a.Password
	}
	return c, c.Validate()
}

// touchConnection records c as most recently used. Cache failures are not
// fatal to the calling tool.
func (s *Server) touchConnection(c connection.Connection) string {
	if s.store == nil {
		return c.Key()
	}
	key, err := s.store.SaveConnection(c)
	if err != nil {
		return c.Key()
	}
	return key
}

func (s *Server) handleSaveConnection(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return errResult("connection cache disabled"), nil
	}
	var a connArgs
	if err := decodeArgs(req, &a); err != nil {
		return errResult(err.Error()), nil
	}
	if a.URI == "" {
		return errResult("missing required 'uri' parameter"), nil
	}
	c, err := s.resolveConnection(a)
	if err != nil {
		return errResult(err.Error()), nil
	}
	key, err := s.store.SaveConnection(c)
	if err != nil {
		return errResult(fmt.Sprintf("save connection: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"key":         key,
		"connection":  c.Redacted(),
		"browser_url": c.BrowserURL(),
	}), nil
}

func (s *Server) handleListConnections(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return errResult("connection cache disabled"), nil
	}
	all, err := s.store.ListConnections()
	if err != nil {
		return errResult(fmt.Sprintf("list connections: %v", err)), nil
	}
	type entry struct {
		*store.SavedConnection
		BrowserURL string `json:"browser_url"`
	}
	out := make([]entry, 0, len(all))
	for _, sc := range all {
		out = append(out, entry{SavedConnection: sc, BrowserURL: sc.Connection.BrowserURL()})
	}
	return jsonResult(map[string]any{"connections": out, "total": len(out)}), nil
}
