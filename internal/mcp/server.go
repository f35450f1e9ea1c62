package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcphost-go/internal/errors"
)

// Handle is one live MCP server as seen by the session registry.
type Handle interface {
	// Name returns the current display name.
	Name() string

	// SetName relabels the server. The process is not restarted.
	SetName(name string)

	// PID returns the OS process id of the server.
	PID() int

	// Tools lists the tools the server advertises.
	// Returns ProtocolError on failure.
	Tools(ctx context.Context) ([]*mcp.Tool, error)

	// CallTool invokes a tool and returns its serialized result.
	// Returns ToolExecutionError on failure.
	CallTool(ctx context.Context, tool string, args map[string]any) (string, error)

	// PeerInfo returns the handshake result describing the server.
	PeerInfo() *mcp.InitializeResult

	// Kill signals the subprocess and aborts in-flight calls. It reports
	// whether a live process was found. Safe to call multiple times.
	Kill() bool
}

// ConnectOptions configures Connect.
type ConnectOptions struct {
	// Logger is an optional logger. If nil, logging is disabled.
	Logger *slog.Logger

	// ClientName and ClientVersion identify the host in the handshake.
	ClientName    string
	ClientVersion string

	// Transport carries the MCP connection.
	Transport mcp.Transport

	// Process is the OS process behind Transport.
	Process Process

	// Config is the command line the server was started from. It labels
	// errors and supplies a fallback name.
	Config *StdioServerConfig
}

// Server implements Handle on top of an MCP client session.
type Server struct {
	log     *slog.Logger
	session *mcp.ClientSession
	proc    Process
	peer    *mcp.InitializeResult
	label   string

	mu   sync.RWMutex
	name string

	life   context.Context
	cancel context.CancelFunc
	killed atomic.Bool
}

// Compile-time verification that Server implements Handle.
var _ Handle = (*Server)(nil)

// Connect performs the MCP handshake over opts.Transport.
//
// When the transport fails before the process exists the error is a
// SpawnError; any later failure is a HandshakeError and the process is
// killed before returning.
func Connect(ctx context.Context, opts *ConnectOptions) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = &StdioServerConfig{}
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    opts.ClientName,
		Version: opts.ClientVersion,
	}, nil)

	session, err := client.Connect(ctx, opts.Transport, nil)
	if err != nil {
		if opts.Process.PID() == 0 {
			log.Error("Failed to spawn MCP server", "command", cfg.Label(), "error", err)

			return nil, &errors.SpawnError{Command: cfg.Label(), Err: err}
		}

		log.Error("MCP handshake failed", "command", cfg.Label(), "pid", opts.Process.PID(), "error", err)
		opts.Process.Kill()

		return nil, &errors.HandshakeError{Command: cfg.Label(), Err: err}
	}

	peer := session.InitializeResult()

	name := cfg.fallbackName()
	if peer != nil && peer.ServerInfo != nil && peer.ServerInfo.Name != "" {
		name = peer.ServerInfo.Name
	}

	life, cancel := context.WithCancel(context.Background())

	s := &Server{
		log:     log.With("component", "mcp_server", "pid", opts.Process.PID()),
		session: session,
		proc:    opts.Process,
		peer:    peer,
		label:   cfg.Label(),
		name:    name,
		life:    life,
		cancel:  cancel,
	}

	s.log.Info("MCP server connected", "server_name", name, "command", s.label)

	return s, nil
}

// Name returns the current display name.
func (s *Server) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.name
}

// SetName relabels the server.
func (s *Server) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("Renaming MCP server", "old_name", s.name, "new_name", name)
	s.name = name
}

// PID returns the OS process id of the server.
func (s *Server) PID() int {
	return s.proc.PID()
}

// PeerInfo returns the handshake result describing the server.
func (s *Server) PeerInfo() *mcp.InitializeResult {
	return s.peer
}

// Tools lists every tool the server advertises, following pagination.
func (s *Server) Tools(ctx context.Context) ([]*mcp.Tool, error) {
	if s.peer != nil && s.peer.Capabilities != nil && s.peer.Capabilities.Tools == nil {
		return []*mcp.Tool{}, nil
	}

	if s.killed.Load() {
		return nil, &errors.ProtocolError{Server: s.Name(), Op: "tools/list", Err: errors.ErrServerKilled}
	}

	ctx, done := s.bind(ctx)
	defer done()

	tools := make([]*mcp.Tool, 0, 8)
	params := &mcp.ListToolsParams{}

	for {
		res, err := s.session.ListTools(ctx, params)
		if err != nil {
			return nil, &errors.ProtocolError{Server: s.Name(), Op: "tools/list", Err: s.cause(err)}
		}

		tools = append(tools, res.Tools...)

		if res.NextCursor == "" {
			break
		}

		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}

	s.log.Debug("Listed MCP tools", "server_name", s.Name(), "count", len(tools))

	return tools, nil
}

// CallTool invokes tool with args and serializes the result.
func (s *Server) CallTool(ctx context.Context, tool string, args map[string]any) (string, error) {
	if s.killed.Load() {
		return "", &errors.ToolExecutionError{Server: s.Name(), Tool: tool, Err: errors.ErrServerKilled}
	}

	ctx, done := s.bind(ctx)
	defer done()

	if args == nil {
		args = map[string]any{}
	}

	res, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		s.log.Warn("MCP tool call failed", "tool", tool, "error", err)

		return "", &errors.ToolExecutionError{Server: s.Name(), Tool: tool, Err: s.cause(err)}
	}

	out, err := FormatResult(res)
	if err != nil {
		return "", &errors.ToolExecutionError{Server: s.Name(), Tool: tool, Err: err}
	}

	return out, nil
}

// Kill signals the subprocess, cancels in-flight calls and closes the
// connection in the background.
func (s *Server) Kill() bool {
	if !s.killed.CompareAndSwap(false, true) {
		return false
	}

	s.cancel()

	alive := s.proc.Kill()
	s.log.Info("Killed MCP server", "server_name", s.Name(), "alive", alive)

	go func() {
		if err := s.session.Close(); err != nil {
			s.log.Debug("MCP session close after kill", "error", err)
		}
	}()

	return alive
}

// bind derives a context that is also cancelled when the server is killed.
func (s *Server) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(s.life, func() {
		cancel(errors.ErrServerKilled)
	})

	return ctx, func() {
		stop()
		cancel(nil)
	}
}

// cause reports ErrServerKilled for any failure after Kill, since closing
// the connection surfaces as a transport error.
func (s *Server) cause(err error) error {
	if s.killed.Load() {
		return fmt.Errorf("%w: %w", errors.ErrServerKilled, err)
	}

	return err
}
