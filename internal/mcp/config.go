package mcp

import (
	"path/filepath"
	"strings"
)

// StdioServerConfig configures a stdio-based MCP server.
type StdioServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Label returns a short human-readable form of the command line.
func (c *StdioServerConfig) Label() string {
	if len(c.Args) == 0 {
		return c.Command
	}

	return c.Command + " " + strings.Join(c.Args, " ")
}

// fallbackName derives a display name when the server reports none:
// the base name of the last argument, or of the command.
func (c *StdioServerConfig) fallbackName() string {
	for i := len(c.Args) - 1; i >= 0; i-- {
		if arg := c.Args[i]; arg != "" && !strings.HasPrefix(arg, "-") {
			return filepath.Base(arg)
		}
	}

	return filepath.Base(c.Command)
}
