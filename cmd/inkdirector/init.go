package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/inkdirector/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// inkdirectorMCPEntry is the MCP server configuration for the inkdirector binary.
var inkdirectorMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "inkdirector",
  "args": ["serve-mcp"]
}`)

const configTemplate = `# inkdirector project settings. Command-line flags override these values.
sourcePhase: Roughs
destPhase: CleanUp
poseLock: true
styleLock: true
logMode: prod
workers: 0
cacheTTL: 10m
# Workflow node ids by plan slot.
nodes:
  ksampler1: "5"
  ksampler2: "55"
  controlnet_union: "103"
  controlnet_openpose: "104"
  ip_adapter: "66"
  ip_adapter_ks2: "105"
`

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write inkdirector.yml and register the MCP server in .mcp.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.configDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd.OutOrStdout(), dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files and entries")
	return cmd
}

// runInit installs the default config and MCP configuration into dir.
func runInit(w io.Writer, dir string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	cfgPath := filepath.Join(abs, config.FileNames[0])
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", config.FileNames[0])
	} else {
		if err := os.WriteFile(cfgPath, []byte(configTemplate), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cfgPath, err)
		}
		fmt.Fprintf(w, "  created %s\n", config.FileNames[0])
	}

	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. The inkdirector MCP server is ready.")
	return nil
}

// mergeMCPConfig creates or merges the inkdirector entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
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

	if _, exists := cfg.MCPServers["inkdirector"]; exists && !force {
		fmt.Fprintf(w, "  skipped .mcp.json inkdirector entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["inkdirector"] = inkdirectorMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with inkdirector MCP server\n", action)
	return nil
}
