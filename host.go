package mcphost

import (
	"context"
)

// Host runs MCP servers on behalf of chat sessions.
//
// Sessions are keyed by small integer ids and come into existence the first
// time a server is started for them. Each session owns a set of uniquely
// named servers and a routing table mapping every advertised tool to the
// server that serves it.
//
// Stop and rename operations are idempotent: acting on a session or server
// that does not exist succeeds without doing anything.
//
// Example usage:
//
//	host := mcphost.NewHost(mcphost.WithLogger(slog.Default()))
//	defer host.Close()
//
//	status, err := host.StartMCPServer(ctx, 7, "uvx", []string{"mcp-server-fetch"}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := host.CallMCPTool(ctx, 7, "fetch", map[string]any{"url": "https://example.com"})
type Host interface {
	// StartMCPServer spawns command with args and env, completes the MCP
	// handshake and admits the server into the session.
	// Returns UnsupportedRuntimeError, SpawnError, HandshakeError,
	// DuplicateServerNameError or ProtocolError.
	StartMCPServer(
		ctx context.Context,
		sessionID int,
		command string,
		args []string,
		env map[string]string,
	) (*ServerStatus, error)

	// StopMCPServer kills the named server and drops its tool routes.
	StopMCPServer(sessionID int, name string) error

	// StopSession kills every server of the session and forgets it.
	StopSession(sessionID int) error

	// GetMCPTools lists the tools of every server in the session.
	// An unknown session yields an empty list.
	GetMCPTools(ctx context.Context, sessionID int) ([]*Tool, error)

	// CallMCPTool invokes the tool on the server that currently owns it and
	// returns the JSON-encoded result.
	// Returns ToolNotFoundError, ServerNotFoundError or ToolExecutionError.
	CallMCPTool(ctx context.Context, sessionID int, name string, args map[string]any) (string, error)

	// RenameMCPServer relabels a server and moves its tool routes.
	RenameMCPServer(sessionID int, oldName, newName string) error

	// PeerInfo starts a server outside any session, returns its JSON-encoded
	// handshake result and kills it again.
	PeerInfo(ctx context.Context, command string, args []string, env map[string]string) (string, error)

	// ListMCPServers describes the live servers of the session, ordered by
	// name.
	ListMCPServers(sessionID int) ([]ServerStatus, error)

	// Close sweeps every descendant process of the host and rejects any
	// further calls with ErrHostClosed. Safe to call multiple times.
	Close() error
}

// NewHost creates a host configured by opts.
//
// Configuration is read from opts only. Callers that want MCPHOST_*
// environment overrides apply them with Options.ApplyEnv first, as the
// mcphost daemon does.
func NewHost(opts ...Option) Host {
	return newHostImpl(applyOptions(opts))
}
