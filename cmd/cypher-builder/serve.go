package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/DeusData/cypher-builder/internal/httpapi"
	"github.com/DeusData/cypher-builder/internal/tools"
)

func mcpCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the builder as MCP tools over stdio (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context(), *g)
		},
	}
}

func runMCP(ctx context.Context, g globalFlags) error {
	a, err := newApp(&g)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	a.watch(ctx)

	srv := tools.NewServer(a.sessions, a.store, a.pool, a.cfg.EffectiveConnection())
	slog.Info("mcp.start", "version", version)
	if err := srv.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the builder as a JSON HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *g, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :7475)")
	return cmd
}

func runServe(ctx context.Context, g globalFlags, addr string) error {
	a, err := newApp(&g)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	a.watch(ctx)

	if addr == "" {
		addr = a.cfg.EffectiveHTTPAddr()
	}
	router := httpapi.NewRouter(a.sessions, a.metrics, a.cfg.EffectiveCORSOrigins())
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http.listen", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("http.shutdown")
	return srv.Shutdown(shutdownCtx)
}
