package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AddScanTool registers the pydeps_scan tool with an MCP server.
func AddScanTool(s *server.MCPServer, roots RootScanner) {
	tool := mcp.NewTool(
		"pydeps_scan",
		mcp.WithDescription(`Scan a Python project directory (or a single script) and report the third-party packages it depends on.

Standard-library modules and modules that resolve inside the project are listed separately. Per-file results are omitted unless include_files is true.`),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Project directory or .py script to scan")),
		mcp.WithBoolean("include_files",
			mcp.Description("Include per-file import lists in the report (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createScanHandler(roots))
}

// createScanHandler creates the handler function for the pydeps_scan tool.
func createScanHandler(roots RootScanner) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := argsOf(request)
		if errResult != nil {
			return errResult, nil
		}

		root, err := args.path("root")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := roots.ScanRoot(ctx, root)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
		}

		if !args.flag("include_files", false) {
			trimmed := *report
			trimmed.Files = nil
			report = &trimmed
		}

		return jsonResult(report)
	}
}
