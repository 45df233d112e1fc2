// Package main provides the cypher-builder binary: an MCP server (default),
// an HTTP API, and offline template commands over a schema file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeusData/cypher-builder/internal/config"
	"github.com/DeusData/cypher-builder/internal/release"
	"github.com/DeusData/cypher-builder/internal/tools"
)

var version = "dev"

const appName = "cypher-builder"

type globalFlags struct {
	configPath string
	schemaFile string
	logLevel   string
	storePath  string
	noStore    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Visual Cypher query builder core",
		Long: `cypher-builder keeps a block-based Cypher query builder in memory:
sidebar palettes generated from a graph schema, a wizard that suggests
the next block, drag and drop editing, and templates.

Without a subcommand it serves the builder as MCP tools over stdio.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context(), g)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path (default ./"+config.FileName+")")
	pf.StringVar(&g.schemaFile, "schema", "", "Schema file (JSON or YAML), watched for changes")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.storePath, "store", "", "SQLite cache path (default in the user cache dir)")
	pf.BoolVar(&g.noStore, "no-store", false, "Disable the connection and schema cache")

	cmd.AddCommand(
		mcpCmd(&g),
		serveCmd(&g),
		templatesCmd(&g),
		renderCmd(&g),
		installCmd(&g),
		uninstallCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", appName, version)
			if !check {
				return nil
			}
			rel, err := release.Newer(cmd.Context(), version)
			if err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}
			if rel == nil {
				fmt.Fprintln(out, "up to date")
				return nil
			}
			fmt.Fprintf(out, "update available: %s %s\n", rel.TagName, rel.HTMLURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}

// loadConfig reads the config file and applies flag overrides, then
// configures the default logger on stderr. Stdout belongs to MCP.
func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.schemaFile != "" {
		cfg.SchemaFile = g.schemaFile
	}
	if g.logLevel != "" {
		cfg.LogLevel = strings.ToLower(g.logLevel)
	}
	if g.storePath != "" {
		cfg.Store.Path = g.storePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.EffectiveLogLevel()}))
	slog.SetDefault(logger)
	tools.Version = version
	return cfg, nil
}
