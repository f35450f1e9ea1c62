package errors

import (
	"errors"
	"fmt"
)

// MCPHostError is the base interface for all host errors.
type MCPHostError interface {
	error
	IsMCPHostError() bool
}

// Compile-time verification that all error types implement MCPHostError.
var (
	_ MCPHostError = (*UnsupportedRuntimeError)(nil)
	_ MCPHostError = (*SpawnError)(nil)
	_ MCPHostError = (*HandshakeError)(nil)
	_ MCPHostError = (*DuplicateServerNameError)(nil)
	_ MCPHostError = (*ToolNotFoundError)(nil)
	_ MCPHostError = (*ServerNotFoundError)(nil)
	_ MCPHostError = (*ProtocolError)(nil)
	_ MCPHostError = (*ToolExecutionError)(nil)
	_ MCPHostError = (*MessageDecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrHostClosed indicates the host has been closed and swept its processes.
	ErrHostClosed = errors.New("host closed")

	// ErrServerKilled indicates the server was killed while a call was in flight.
	ErrServerKilled = errors.New("server killed")

	// ErrUnknownCommand indicates a command request named no registered handler.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrOperationCancelled indicates an operation was cancelled via cancel request.
	ErrOperationCancelled = errors.New("operation cancelled")
)

// UnsupportedRuntimeError indicates a command outside the fixed runtime set.
type UnsupportedRuntimeError struct {
	Runtime string
}

func (e *UnsupportedRuntimeError) Error() string {
	return fmt.Sprintf("%s servers not supported", e.Runtime)
}

// IsMCPHostError implements MCPHostError.
func (e *UnsupportedRuntimeError) IsMCPHostError() bool { return true }

// SpawnError indicates the server subprocess could not be started.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsMCPHostError implements MCPHostError.
func (e *SpawnError) IsMCPHostError() bool { return true }

// HandshakeError indicates the subprocess started but the MCP initialize
// exchange failed.
type HandshakeError struct {
	Command string
	Err     error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("MCP handshake with %s failed: %v", e.Command, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// IsMCPHostError implements MCPHostError.
func (e *HandshakeError) IsMCPHostError() bool { return true }

// DuplicateServerNameError indicates a session already runs a server with
// the same display name.
type DuplicateServerNameError struct {
	SessionID int
	Name      string
}

func (e *DuplicateServerNameError) Error() string {
	return fmt.Sprintf("a server with the name '%s' is already running in session %d", e.Name, e.SessionID)
}

// IsMCPHostError implements MCPHostError.
func (e *DuplicateServerNameError) IsMCPHostError() bool { return true }

// ToolNotFoundError indicates no server in the session advertises the tool.
type ToolNotFoundError struct {
	SessionID int
	Tool      string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool '%s' not found in session %d", e.Tool, e.SessionID)
}

// IsMCPHostError implements MCPHostError.
func (e *ToolNotFoundError) IsMCPHostError() bool { return true }

// ServerNotFoundError indicates the tool is routed to a server that is no
// longer present in the session.
type ServerNotFoundError struct {
	SessionID int
	Server    string
	Tool      string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("MCP server '%s' not found for tool '%s' in session %d", e.Server, e.Tool, e.SessionID)
}

// IsMCPHostError implements MCPHostError.
func (e *ServerNotFoundError) IsMCPHostError() bool { return true }

// ProtocolError indicates an MCP request other than a tool call failed.
type ProtocolError struct {
	Server string
	Op     string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("MCP %s on server '%s' failed: %v", e.Op, e.Server, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsMCPHostError implements MCPHostError.
func (e *ProtocolError) IsMCPHostError() bool { return true }

// ToolExecutionError indicates a tool call could not be completed.
type ToolExecutionError struct {
	Server string
	Tool   string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool '%s' on server '%s' failed: %v", e.Tool, e.Server, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// IsMCPHostError implements MCPHostError.
func (e *ToolExecutionError) IsMCPHostError() bool { return true }

// MessageDecodeError indicates a line on the command stream was not valid JSON.
type MessageDecodeError struct {
	RawData string
	Err     error
}

func (e *MessageDecodeError) Error() string {
	return fmt.Sprintf("failed to decode command message: %v", e.Err)
}

func (e *MessageDecodeError) Unwrap() error {
	return e.Err
}

// IsMCPHostError implements MCPHostError.
func (e *MessageDecodeError) IsMCPHostError() bool { return true }
