package session

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcphost-go/internal/errors"
	"github.com/wagiedev/mcphost-go/internal/mcp"
)

// session is the state of one conversation.
type session struct {
	servers map[string]mcp.Handle
	// routes maps tool name to the owning server's display name.
	routes map[string]string
	// advertised holds the tool names each server listed at admission.
	advertised map[string][]string
	// admitted lists server names oldest first.
	admitted []string
}

func newSession() *session {
	return &session{
		servers:    make(map[string]mcp.Handle, 4),
		routes:     make(map[string]string, 16),
		advertised: make(map[string][]string, 4),
	}
}

// reroute hands each tool in orphaned to the most recently admitted server
// that advertised it, and drops the route when none is left.
func (s *session) reroute(log *slog.Logger, orphaned []string) {
	for _, tool := range orphaned {
		delete(s.routes, tool)

		for _, name := range slices.Backward(s.admitted) {
			if slices.Contains(s.advertised[name], tool) {
				s.routes[tool] = name
				log.Info("Tool route handed over", "tool", tool, "new_server", name)

				break
			}
		}
	}
}

// Registry owns every session and the servers running in them.
type Registry struct {
	log      *slog.Logger
	launcher mcp.Launcher

	mu       sync.Mutex
	sessions map[int]*session
}

// NewRegistry creates an empty registry that starts servers with launcher.
func NewRegistry(log *slog.Logger, launcher mcp.Launcher) *Registry {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Registry{
		log:      log.With("component", "session_registry"),
		launcher: launcher,
		sessions: make(map[int]*session),
	}
}

// StartServer launches a server and admits it into the session, creating
// the session on first use.
//
// Returns the launcher's UnsupportedRuntimeError, SpawnError or
// HandshakeError, DuplicateServerNameError when the session already runs a
// server with the same name, or ProtocolError when the new server cannot
// list its tools. A rejected server is killed before returning.
func (r *Registry) StartServer(ctx context.Context, sessionID int, cfg *mcp.StdioServerConfig) (mcp.Handle, error) {
	log := r.log.With("session_id", sessionID)

	// Handshake latency must not stall other sessions.
	handle, err := r.launcher.Launch(ctx, cfg)
	if err != nil {
		log.Warn("Failed to start MCP server", "command", cfg.Label(), "error", err)

		return nil, err
	}

	name := handle.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		s = newSession()
		r.sessions[sessionID] = s
		log.Debug("Created session")
	}

	if _, exists := s.servers[name]; exists {
		handle.Kill()
		log.Warn("Rejected duplicate MCP server", "server_name", name)

		return nil, &errors.DuplicateServerNameError{SessionID: sessionID, Name: name}
	}

	tools, err := handle.Tools(ctx)
	if err != nil {
		handle.Kill()
		log.Warn("Rejected MCP server without tool listing", "server_name", name, "error", err)

		return nil, err
	}

	names := make([]string, 0, len(tools))

	for _, tool := range tools {
		names = append(names, tool.Name)

		if prev, taken := s.routes[tool.Name]; taken && prev != name {
			// Last writer wins.
			log.Info("Tool route overwritten", "tool", tool.Name, "old_server", prev, "new_server", name)
		}

		s.routes[tool.Name] = name
	}

	s.servers[name] = handle
	s.advertised[name] = names
	s.admitted = append(s.admitted, name)

	log.Info("MCP server admitted", "server_name", name, "pid", handle.PID(), "tools", len(tools))

	return handle, nil
}

// StopServer removes and kills the named server. It reports whether a
// server was removed; a missing session or name is not an error.
func (r *Registry) StopServer(sessionID int, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}

	handle, ok := s.servers[name]
	if !ok {
		return false
	}

	delete(s.servers, name)
	delete(s.advertised, name)
	s.admitted = slices.DeleteFunc(s.admitted, func(n string) bool { return n == name })

	var orphaned []string

	for tool, owner := range s.routes {
		if owner == name {
			orphaned = append(orphaned, tool)
		}
	}

	s.reroute(r.log.With("session_id", sessionID), orphaned)

	alive := handle.Kill()
	r.log.Info("MCP server stopped", "session_id", sessionID, "server_name", name, "alive", alive)

	return true
}

// StopSession removes the session and kills all of its servers. It reports
// whether the session existed.
func (r *Registry) StopSession(sessionID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}

	delete(r.sessions, sessionID)

	for name, handle := range s.servers {
		alive := handle.Kill()
		r.log.Debug("Killed MCP server with session", "session_id", sessionID, "server_name", name, "alive", alive)
	}

	r.log.Info("Session stopped", "session_id", sessionID, "servers", len(s.servers))

	return true
}

// ListTools returns the union of the tools advertised by every server in
// the session, ordered by server name. An unknown session has no tools.
func (r *Registry) ListTools(ctx context.Context, sessionID int) ([]*sdkmcp.Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return []*sdkmcp.Tool{}, nil
	}

	names := slices.Sorted(maps.Keys(s.servers))
	lists := make([][]*sdkmcp.Tool, len(names))

	g, gCtx := errgroup.WithContext(ctx)

	for i, name := range names {
		handle := s.servers[name]

		g.Go(func() error {
			tools, err := handle.Tools(gCtx)
			if err != nil {
				return err
			}

			lists[i] = tools

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.log.Warn("Failed to list session tools", "session_id", sessionID, "error", err)

		return nil, err
	}

	return slices.Concat(lists...), nil
}

// CallTool routes a tool call to the server that advertises the tool.
//
// Returns ToolNotFoundError when no server advertises the tool,
// ServerNotFoundError when the routed server is gone, or the server's
// ToolExecutionError. The call itself runs without the registry lock, so a
// concurrent StopServer kills the server and aborts the call.
func (r *Registry) CallTool(ctx context.Context, sessionID int, tool string, args map[string]any) (string, error) {
	handle, err := r.route(sessionID, tool)
	if err != nil {
		return "", err
	}

	callID := ulid.Make().String()
	log := r.log.With("session_id", sessionID, "tool", tool, "server_name", handle.Name(), "call_id", callID)

	log.Debug("Calling MCP tool")

	out, err := handle.CallTool(ctx, tool, args)
	if err != nil {
		log.Warn("MCP tool call failed", "error", err)

		return "", err
	}

	log.Debug("MCP tool call completed", "result_len", len(out))

	return out, nil
}

// route resolves tool to its server handle in two steps.
func (r *Registry) route(sessionID int, tool string) (mcp.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, &errors.ToolNotFoundError{SessionID: sessionID, Tool: tool}
	}

	name, ok := s.routes[tool]
	if !ok {
		return nil, &errors.ToolNotFoundError{SessionID: sessionID, Tool: tool}
	}

	handle, ok := s.servers[name]
	if !ok {
		return nil, &errors.ServerNotFoundError{SessionID: sessionID, Server: name, Tool: tool}
	}

	return handle, nil
}

// RenameServer relabels a server and moves its tool routes. It reports
// whether anything was renamed. Unknown sessions or servers, and a newName
// already held by another server, leave the session untouched.
func (r *Registry) RenameServer(sessionID int, oldName, newName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.log.With("session_id", sessionID, "old_name", oldName, "new_name", newName)

	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}

	handle, ok := s.servers[oldName]
	if !ok {
		return false
	}

	if newName == oldName {
		return true
	}

	if _, taken := s.servers[newName]; taken || newName == "" {
		log.Warn("Refused MCP server rename")

		return false
	}

	delete(s.servers, oldName)
	handle.SetName(newName)
	s.servers[newName] = handle

	s.advertised[newName] = s.advertised[oldName]
	delete(s.advertised, oldName)

	if i := slices.Index(s.admitted, oldName); i >= 0 {
		s.admitted[i] = newName
	}

	for tool, owner := range s.routes {
		if owner == oldName {
			s.routes[tool] = newName
		}
	}

	log.Info("MCP server renamed")

	return true
}

// ListServers describes every server in the session, ordered by name.
func (r *Registry) ListServers(sessionID int) []mcp.ServerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return []mcp.ServerStatus{}
	}

	owned := make(map[string][]string, len(s.servers))
	for tool, owner := range s.routes {
		owned[owner] = append(owned[owner], tool)
	}

	statuses := make([]mcp.ServerStatus, 0, len(s.servers))

	for name, handle := range s.servers {
		tools := owned[name]
		if tools == nil {
			tools = []string{}
		}

		slices.Sort(tools)

		status := mcp.ServerStatus{
			Name:  name,
			PID:   handle.PID(),
			Tools: tools,
		}

		if peer := handle.PeerInfo(); peer != nil && peer.ServerInfo != nil {
			status.Version = peer.ServerInfo.Version
		}

		statuses = append(statuses, status)
	}

	slices.SortFunc(statuses, func(a, b mcp.ServerStatus) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return statuses
}

// Sessions returns the ids of every live session in ascending order.
func (r *Registry) Sessions() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Sorted(maps.Keys(r.sessions))
}
