package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/flowchart/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// flowchartMCPEntry is the MCP server configuration for the flowchart binary.
var flowchartMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "flowchart",
  "args": ["mcp"]
}`)

func (a *app) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter flowchart.yml and register the MCP server in .mcp.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd.OutOrStdout(), dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files and entries")
	return cmd
}

// runInit writes the starter config and MCP registration into dir.
func runInit(out io.Writer, dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	cfgPath := filepath.Join(abs, "flowchart.yml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(out, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, cfgPath))
	} else {
		if err := starterConfig().Write(cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "  created %s\n", dotRelative(abs, cfgPath))
	}

	if err := mergeMCPConfig(out, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSetup complete. Run 'flowchart translate <path>' or 'flowchart mcp'.")
	return nil
}

// starterConfig is the portable subset of the defaults: worker count and
// store location are left to the machine.
func starterConfig() config.Config {
	defaults := config.Config{}.WithDefaults()
	return config.Config{
		MaxSourceBytes: defaults.MaxSourceBytes,
		CacheSize:      defaults.CacheSize,
		ListenAddr:     defaults.ListenAddr,
		LogLevel:       defaults.LogLevel,
		ExcludeDirs:    defaults.ExcludeDirs,
	}
}

// mergeMCPConfig creates or merges the flowchart entry into .mcp.json.
func mergeMCPConfig(out io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["flowchart"]; exists && !force {
		fmt.Fprintf(out, "  skipped .mcp.json flowchart entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["flowchart"] = flowchartMCPEntry

	encoded, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(out, "  %s .mcp.json with flowchart MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
