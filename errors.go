package mcphost

import "github.com/wagiedev/mcphost-go/internal/errors"

// Re-export error types from internal package

// MCPHostError is the base interface for all host errors.
type MCPHostError = errors.MCPHostError

// UnsupportedRuntimeError indicates a command outside the supported runtimes.
type UnsupportedRuntimeError = errors.UnsupportedRuntimeError

// SpawnError indicates the server subprocess could not be started.
type SpawnError = errors.SpawnError

// HandshakeError indicates the MCP initialize exchange failed.
type HandshakeError = errors.HandshakeError

// DuplicateServerNameError indicates the session already runs a server
// with the same name.
type DuplicateServerNameError = errors.DuplicateServerNameError

// ToolNotFoundError indicates no server in the session advertises the tool.
type ToolNotFoundError = errors.ToolNotFoundError

// ServerNotFoundError indicates the tool is routed to a server that is gone.
type ServerNotFoundError = errors.ServerNotFoundError

// ProtocolError indicates an MCP request other than a tool call failed.
type ProtocolError = errors.ProtocolError

// ToolExecutionError indicates a tool call failed to complete.
type ToolExecutionError = errors.ToolExecutionError

// Re-export sentinel errors from internal package.
var (
	// ErrHostClosed indicates the host has been closed.
	ErrHostClosed = errors.ErrHostClosed

	// ErrServerKilled indicates the server was killed while a call was in flight.
	ErrServerKilled = errors.ErrServerKilled
)
