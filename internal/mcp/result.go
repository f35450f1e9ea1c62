package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FormatResult serializes a tool result into the JSON string handed back to
// the UI, in the MCP wire encoding. Tool-level failures stay in-band as
// "isError": true.
func FormatResult(result *mcp.CallToolResult) (string, error) {
	out := mcp.CallToolResult{}
	if result != nil {
		out = *result
	}

	if out.Content == nil {
		out.Content = []mcp.Content{}
	}

	data, err := json.Marshal(&out)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}

	return string(data), nil
}
