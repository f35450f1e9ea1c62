package mcphost

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcphost-go/internal/mcp"
	"github.com/wagiedev/mcphost-go/internal/proctree"
)

// Tool describes a tool advertised by an MCP server.
type Tool = sdkmcp.Tool

// ServerStatus describes a live MCP server in a session.
type ServerStatus = mcp.ServerStatus

// ServerConfig is the command line of a stdio MCP server.
type ServerConfig = mcp.StdioServerConfig

// Launcher starts MCP servers and completes their handshake.
type Launcher = mcp.Launcher

// ServerHandle is a live MCP server returned by a Launcher.
type ServerHandle = mcp.Handle

// ProcessTable is a snapshot-and-kill view of the OS process table.
type ProcessTable = proctree.Table

// ProcessNode is one (pid, parent pid) pair of a process table snapshot.
type ProcessNode = proctree.Node
