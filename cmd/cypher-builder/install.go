package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const mcpServerKey = appName

// editor is a desktop client that reads MCP servers from a JSON file.
type editor struct {
	name string
	path func(home string) string
}

var editors = []editor{
	{"Cursor", func(home string) string { return filepath.Join(home, ".cursor", "mcp.json") }},
	{"Windsurf", func(home string) string { return filepath.Join(home, ".codeium", "windsurf", "mcp_config.json") }},
	{"Claude Desktop", claudeDesktopConfigPath},
}

type installConfig struct {
	dryRun bool
	out    io.Writer
}

// installCmd registers the binary with the persistent --schema flag, so the
// editor's server starts on the same schema file.
func installCmd(g *globalFlags) *cobra.Command {
	var cfg installConfig
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register cypher-builder as an MCP server in Cursor, Windsurf and Claude Desktop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.out = cmd.OutOrStdout()
			binaryPath, err := detectBinaryPath()
			if err != nil {
				return err
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("home dir: %w", err)
			}
			args := []string{"mcp"}
			if g.schemaFile != "" {
				abs, err := filepath.Abs(g.schemaFile)
				if err != nil {
					return err
				}
				args = append(args, "--schema", abs)
			}
			fmt.Fprintf(cfg.out, "%s %s: install\nBinary: %s\n\n", appName, version, binaryPath)
			for _, e := range editors {
				installEditorMCP(binaryPath, args, e.path(home), e.name, cfg)
			}
			fmt.Fprintln(cfg.out, "\nDone. Restart the editors to activate.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.dryRun, "dry-run", false, "Print what would change")
	return cmd
}

func uninstallCmd() *cobra.Command {
	var cfg installConfig
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the cypher-builder MCP server entry from editor configs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.out = cmd.OutOrStdout()
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("home dir: %w", err)
			}
			for _, e := range editors {
				removeEditorMCP(e.path(home), e.name, cfg)
			}
			fmt.Fprintln(cfg.out, "\nDone. The binary and the cache were NOT removed.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.dryRun, "dry-run", false, "Print what would change")
	return cmd
}

// detectBinaryPath resolves the current binary's real path.
func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("detect binary: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve symlink: %w", err)
	}
	return resolved, nil
}

func claudeDesktopConfigPath(home string) string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "Claude", "claude_desktop_config.json")
	}
	return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
}

// readMCPConfig returns the parsed config and its mcpServers map. A
// missing or invalid file yields empty maps.
func readMCPConfig(configPath string) (root, servers map[string]any, existed bool) {
	root = make(map[string]any)
	if data, err := os.ReadFile(configPath); err == nil {
		existed = true
		if json.Unmarshal(data, &root) != nil {
			root = make(map[string]any)
		}
	}
	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	return root, servers, existed
}

func writeMCPConfig(configPath string, root map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return os.WriteFile(configPath, append(out, '\n'), 0o600)
}

// installEditorMCP upserts our MCP server entry in an editor's JSON config file.
func installEditorMCP(binaryPath string, args []string, configPath, editorName string, cfg installConfig) {
	fmt.Fprintf(cfg.out, "[%s] MCP config: %s\n", editorName, configPath)
	if cfg.dryRun {
		fmt.Fprintf(cfg.out, "  [dry-run] Would upsert %s in %s\n", mcpServerKey, configPath)
		return
	}

	root, servers, _ := readMCPConfig(configPath)
	servers[mcpServerKey] = map[string]any{
		"command": binaryPath,
		"args":    args,
	}
	root["mcpServers"] = servers

	if err := writeMCPConfig(configPath, root); err != nil {
		fmt.Fprintf(cfg.out, "  ! %v\n", err)
		return
	}
	fmt.Fprintf(cfg.out, "  registered %s\n", mcpServerKey)
}

// removeEditorMCP removes our MCP server entry from an editor's JSON config file.
func removeEditorMCP(configPath, editorName string, cfg installConfig) {
	root, servers, existed := readMCPConfig(configPath)
	if !existed {
		return
	}
	if _, ok := servers[mcpServerKey]; !ok {
		return
	}

	fmt.Fprintf(cfg.out, "[%s] MCP config: %s\n", editorName, configPath)
	if cfg.dryRun {
		fmt.Fprintf(cfg.out, "  [dry-run] Would remove %s from %s\n", mcpServerKey, configPath)
		return
	}

	delete(servers, mcpServerKey)
	root["mcpServers"] = servers
	if err := writeMCPConfig(configPath, root); err != nil {
		fmt.Fprintf(cfg.out, "  ! %v\n", err)
		return
	}
	fmt.Fprintf(cfg.out, "  removed %s\n", mcpServerKey)
}
