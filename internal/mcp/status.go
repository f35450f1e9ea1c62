package mcp

// ServerStatus describes a single live MCP server in a session.
type ServerStatus struct {
	Name    string   `json:"name"`
	PID     int      `json:"pid"`
	Version string   `json:"version,omitempty"`
	Tools   []string `json:"tools"`
}
