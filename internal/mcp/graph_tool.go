package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pydeps/internal/graph"
)

// Graph query limits.
const (
	DefaultMaxResults = 100
	MaxResults        = 500
)

// GraphResponse is the pydeps_graph result.
type GraphResponse struct {
	Operation  string              `json:"operation"`
	Target     string              `json:"target,omitempty"`
	Results    []string            `json:"results,omitempty"`
	Modules    []graph.ModuleUsage `json:"modules,omitempty"`
	TotalFound int                 `json:"total_found"`
	Truncated  bool                `json:"truncated"`
}

// AddGraphTool registers the pydeps_graph tool with an MCP server.
func AddGraphTool(s *server.MCPServer, roots RootScanner) {
	tool := mcp.NewTool(
		"pydeps_graph",
		mcp.WithDescription("Query the file to module import graph of a Python project. Supports operations: dependencies (modules a file imports), dependents (files importing a module), modules (every imported module by number of importing files)."),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Project directory to scan")),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("Type of query: 'dependencies', 'dependents', or 'modules'")),
		mcp.WithString("target",
			mcp.Description("Absolute file path for 'dependencies', module name for 'dependents'")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 100, max: 500)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createGraphHandler(roots))
}

// createGraphHandler creates the handler function for the pydeps_graph tool.
func createGraphHandler(roots RootScanner) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := argsOf(request)
		if errResult != nil {
			return errResult, nil
		}

		root, err := args.path("root")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		operation, err := args.path("operation")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var target string
		switch operation {
		case "dependencies", "dependents":
			if target, err = args.path("target"); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		case "modules":
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %s (must be one of: dependencies, dependents, modules)", operation)), nil
		}

		maxResults := args.limit("max_results", DefaultMaxResults, 1, MaxResults)

		report, err := roots.ScanRoot(ctx, root)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
		}

		g, err := graph.Build(report)
		if err != nil {
			return nil, fmt.Errorf("failed to build import graph: %w", err)
		}

		response := GraphResponse{Operation: operation, Target: target}
		switch operation {
		case "dependencies", "dependents":
			results := g.Dependencies(target)
			if operation == "dependents" {
				results = g.Dependents(target)
			}
			response.TotalFound = len(results)
			if len(results) > maxResults {
				results = results[:maxResults]
				response.Truncated = true
			}
			response.Results = results
		case "modules":
			modules := g.Modules()
			response.TotalFound = len(modules)
			if len(modules) > maxResults {
				modules = modules[:maxResults]
				response.Truncated = true
			}
			response.Modules = modules
		}

		return jsonResult(response)
	}
}
