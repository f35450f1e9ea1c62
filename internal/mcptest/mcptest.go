// Package mcptest provides in-memory MCP servers for tests.
//
// Servers built here run the real go-sdk server over in-memory transports,
// so handles returned by Connect and Launcher exercise the same client code
// as servers spawned over stdio. Processes are simulated.
package mcptest

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcphost-go/internal/errors"
	internalmcp "github.com/wagiedev/mcphost-go/internal/mcp"
)

// Result is the result type returned by fixture tool handlers.
type Result = mcp.CallToolResult

// ToolHandler handles a fixture tool call.
type ToolHandler func(ctx context.Context, args map[string]any) (*Result, error)

// Tool describes one tool of a fixture server.
type Tool struct {
	Name        string
	Description string
	// Properties maps argument names onto Go type names, see SimpleSchema.
	Properties map[string]string
	// Handler answers calls. If nil, the tool echoes its server, name and
	// arguments.
	Handler ToolHandler
}

// Server describes a fixture MCP server.
type Server struct {
	Name    string
	Version string
	Tools   []Tool
}

// NewMCPServer builds a go-sdk server exposing def's tools.
func NewMCPServer(def *Server) *mcp.Server {
	version := def.Version
	if version == "" {
		version = "1.0.0"
	}

	server := mcp.NewServer(&mcp.Implementation{Name: def.Name, Version: version}, nil)

	for _, tool := range def.Tools {
		handler := tool.Handler
		if handler == nil {
			handler = Echo(def.Name, tool.Name)
		}

		server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: SimpleSchema(tool.Properties),
		}, adapt(handler))
	}

	return server
}

// adapt turns a ToolHandler into a go-sdk handler. Handler errors become
// in-band error results.
func adapt(handler ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}

		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return ErrorResult("failed to unmarshal arguments: " + err.Error()), nil
			}
		}

		result, err := handler(ctx, args)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		return result, nil
	}
}

// Echo returns a handler answering "<server>/<tool> <json args>".
func Echo(server, tool string) ToolHandler {
	return func(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}

		return TextResult(fmt.Sprintf("%s/%s %s", server, tool, data)), nil
	}
}

// Block returns a handler that waits until release is closed or the call
// is cancelled. entered receives one value per call once it is waiting.
func Block(release <-chan struct{}, entered chan<- struct{}) ToolHandler {
	return func(ctx context.Context, _ map[string]any) (*mcp.CallToolResult, error) {
		if entered != nil {
			entered <- struct{}{}
		}

		select {
		case <-release:
			return TextResult("released"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SimpleSchema creates an object schema from a name to Go type map.
//
// Input format: {"a": "float64", "b": "string"}
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))

	for name, goType := range props {
		properties[name] = goTypeToJSONSchema(goType)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
	}
}

// goTypeToJSONSchema converts a Go type string to a JSON Schema type.
func goTypeToJSONSchema(goType string) *jsonschema.Schema {
	switch goType {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "int", "int64":
		return &jsonschema.Schema{Type: "integer"}
	case "float64", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool":
		return &jsonschema.Schema{Type: "boolean"}
	default:
		if item, ok := strings.CutPrefix(goType, "[]"); ok {
			return &jsonschema.Schema{Type: "array", Items: goTypeToJSONSchema(item)}
		}

		return &jsonschema.Schema{Type: "object"}
	}
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

var nextPID atomic.Int64

func init() {
	nextPID.Store(40000)
}

// Process is a simulated OS process.
type Process struct {
	pid    int
	killed atomic.Bool
}

// Compile-time verification that Process implements internalmcp.Process.
var _ internalmcp.Process = (*Process)(nil)

// NewProcess returns a live simulated process with a fresh pid.
func NewProcess() *Process {
	return &Process{pid: int(nextPID.Add(1))}
}

// PID implements internalmcp.Process.
func (p *Process) PID() int { return p.pid }

// Kill implements internalmcp.Process. Only the first call finds a live process.
func (p *Process) Kill() bool { return p.killed.CompareAndSwap(false, true) }

// Killed reports whether Kill has been called.
func (p *Process) Killed() bool { return p.killed.Load() }

// Connect serves def over in-memory transports and returns a connected
// handle plus its simulated process.
func Connect(ctx context.Context, def *Server, cfg *internalmcp.StdioServerConfig) (*internalmcp.Server, *Process, error) {
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	// The server session must outlive ctx; it ends when the client closes.
	if _, err := NewMCPServer(def).Connect(context.Background(), serverTransport, nil); err != nil {
		return nil, nil, fmt.Errorf("connect fixture server: %w", err)
	}

	proc := NewProcess()

	handle, err := internalmcp.Connect(ctx, &internalmcp.ConnectOptions{
		ClientName:    "mcptest",
		ClientVersion: "1.0.0",
		Transport:     clientTransport,
		Process:       proc,
		Config:        cfg,
	})
	if err != nil {
		return nil, nil, err
	}

	return handle, proc, nil
}

// Launched records one successful launch.
type Launched struct {
	Config  *internalmcp.StdioServerConfig
	Handle  *internalmcp.Server
	Process *Process
}

// Launcher implements internalmcp.Launcher with registered fixture servers.
type Launcher struct {
	mu       sync.Mutex
	fixtures map[string]*Server
	failures map[string]error
	launched []*Launched
}

// Compile-time verification that Launcher implements internalmcp.Launcher.
var _ internalmcp.Launcher = (*Launcher)(nil)

// NewLauncher returns an empty fixture launcher.
func NewLauncher() *Launcher {
	return &Launcher{
		fixtures: make(map[string]*Server),
		failures: make(map[string]error),
	}
}

// Register serves def whenever command and args are launched.
func (l *Launcher) Register(command string, args []string, def *Server) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fixtures[launchKey(command, args)] = def
}

// Fail makes launches of command and args return err.
func (l *Launcher) Fail(command string, args []string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[launchKey(command, args)] = err
}

// Launch implements internalmcp.Launcher.
func (l *Launcher) Launch(ctx context.Context, cfg *internalmcp.StdioServerConfig) (internalmcp.Handle, error) {
	key := launchKey(cfg.Command, cfg.Args)

	l.mu.Lock()
	def, ok := l.fixtures[key]
	failure := l.failures[key]
	l.mu.Unlock()

	if failure != nil {
		return nil, failure
	}

	if !ok {
		return nil, &errors.SpawnError{Command: cfg.Label(), Err: exec.ErrNotFound}
	}

	handle, proc, err := Connect(ctx, def, cfg)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.launched = append(l.launched, &Launched{Config: cfg, Handle: handle, Process: proc})
	l.mu.Unlock()

	return handle, nil
}

// Launched returns every successful launch in order.
func (l *Launcher) Launched() []*Launched {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Launched, len(l.launched))
	copy(out, l.launched)

	return out
}

func launchKey(command string, args []string) string {
	return command + "\x00" + strings.Join(args, "\x00")
}
