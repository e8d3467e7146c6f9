package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult encodes a pydeps response (imports, report or graph answer) as
// the text content of a tool result.
func jsonResult(response interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
