package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pydeps/internal/imports"
)

// ImportsResponse is the pydeps_imports result.
type ImportsResponse struct {
	Path    string   `json:"path"`
	Imports []string `json:"imports"`
	Failure string   `json:"failure,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// AddImportsTool registers the pydeps_imports tool with an MCP server.
func AddImportsTool(s *server.MCPServer, analyzer ImportAnalyzer) {
	tool := mcp.NewTool(
		"pydeps_imports",
		mcp.WithDescription(`List the top-level modules a Python file imports, without running it.

Relative imports contribute the module or imported name after the dots. An unreadable or invalid file yields an empty list with a failure class of "unreadable", "malformed" or "unexpected".`),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the Python source file")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createImportsHandler(analyzer))
}

// createImportsHandler creates the handler function for the pydeps_imports tool.
func createImportsHandler(analyzer ImportAnalyzer) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := argsOf(request)
		if errResult != nil {
			return errResult, nil
		}

		path, err := args.path("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result := analyzer.Analyze(path)
		response := ImportsResponse{
			Path:    path,
			Imports: result.Names.Sorted(),
			Failure: imports.FailureClass(result.Err),
		}
		if result.Err != nil {
			response.Error = result.Err.Error()
		}

		return jsonResult(response)
	}
}
