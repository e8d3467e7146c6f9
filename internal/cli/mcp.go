package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pydeps/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for Python dependency queries",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can ask
which packages a Python project needs.

The MCP server:
- Lists the imports of a single file (pydeps_imports)
- Scans a project directory or script (pydeps_scan)
- Answers import graph queries (pydeps_graph)
- Communicates via stdio (standard MCP transport)

Configuration is loaded from the working directory and applies to every
project the server scans. Results of unchanged files are cached for the
lifetime of the server.

Example:
  pydeps mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	projectPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := loadConfig(projectPath)
	if err != nil {
		return err
	}

	ps, err := newProjectScanner(cfg, nil)
	if err != nil {
		return err
	}
	defer ps.Close()

	fmt.Fprintf(os.Stderr, "pydeps MCP Server %s\n", Version)
	fmt.Fprintf(os.Stderr, "Working Directory: %s\n\n", projectPath)

	server, err := mcp.NewMCPServer(Version, ps, ps)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Serve (blocks until shutdown)
	if err := server.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
