package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolArgs is the decoded argument object of a pydeps tool call.
type toolArgs map[string]interface{}

// argsOf returns the arguments of request, or an error result when the client
// sent something other than a JSON object.
func argsOf(request mcp.CallToolRequest) (toolArgs, *mcp.CallToolResult) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("invalid arguments format")
	}
	return toolArgs(args), nil
}

// path returns a required, non-empty string argument such as a file path,
// project root or graph operation.
func (a toolArgs) path(key string) (string, error) {
	val, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if str == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}
	return str, nil
}

// flag returns a boolean switch like include_files, or def when it is absent
// or not a boolean.
func (a toolArgs) flag(key string, def bool) bool {
	if b, ok := a[key].(bool); ok {
		return b
	}
	return def
}

// limit returns a result cap clamped to [lo, hi]. JSON numbers arrive as
// float64; anything else yields def.
func (a toolArgs) limit(key string, def, lo, hi int) int {
	n := def
	if f, ok := a[key].(float64); ok {
		n = int(f)
	}
	return min(max(n, lo), hi)
}
