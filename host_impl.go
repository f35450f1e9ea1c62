package mcphost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/wagiedev/mcphost-go/internal/errors"
	"github.com/wagiedev/mcphost-go/internal/mcp"
	"github.com/wagiedev/mcphost-go/internal/proctree"
	"github.com/wagiedev/mcphost-go/internal/runtimes"
	"github.com/wagiedev/mcphost-go/internal/session"
)

// hostImpl wires the session registry to a launcher and a terminator.
type hostImpl struct {
	log        *slog.Logger
	opts       *Options
	launcher   mcp.Launcher
	registry   *session.Registry
	terminator *proctree.Terminator

	closed    atomic.Bool
	closeOnce sync.Once
}

// Compile-time check that *hostImpl implements the Host interface.
var _ Host = (*hostImpl)(nil)

func newHostImpl(opts *Options) *hostImpl {
	opts.Normalize()

	log := opts.Logger
	if log == nil {
		log = NopLogger()
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = mcp.NewStdioLauncher(&mcp.LauncherConfig{
			Resolver: runtimes.NewResolver(&runtimes.Config{
				ResourceDir: opts.ResourceDir,
				Env:         opts.Env,
				Logger:      log,
			}),
			ClientName:       opts.ClientName,
			ClientVersion:    opts.ClientVersion,
			HandshakeTimeout: opts.HandshakeTimeout,
			Logger:           log,
		})
	}

	return &hostImpl{
		log:        log.With("component", "host"),
		opts:       opts,
		launcher:   launcher,
		registry:   session.NewRegistry(log, launcher),
		terminator: proctree.NewTerminator(log, opts.ProcessTable),
	}
}

func (h *hostImpl) StartMCPServer(
	ctx context.Context,
	sessionID int,
	command string,
	args []string,
	env map[string]string,
) (*ServerStatus, error) {
	if h.closed.Load() {
		return nil, errors.ErrHostClosed
	}

	handle, err := h.registry.StartServer(ctx, sessionID, &mcp.StdioServerConfig{
		Command: command,
		Args:    args,
		Env:     env,
	})
	if err != nil {
		return nil, err
	}

	for _, status := range h.registry.ListServers(sessionID) {
		if status.PID == handle.PID() {
			return &status, nil
		}
	}

	// Stopped again before we could read it back.
	return &ServerStatus{Name: handle.Name(), PID: handle.PID(), Tools: []string{}}, nil
}

func (h *hostImpl) StopMCPServer(sessionID int, name string) error {
	if h.closed.Load() {
		return errors.ErrHostClosed
	}

	h.registry.StopServer(sessionID, name)

	return nil
}

func (h *hostImpl) StopSession(sessionID int) error {
	if h.closed.Load() {
		return errors.ErrHostClosed
	}

	h.registry.StopSession(sessionID)

	return nil
}

func (h *hostImpl) GetMCPTools(ctx context.Context, sessionID int) ([]*Tool, error) {
	if h.closed.Load() {
		return nil, errors.ErrHostClosed
	}

	return h.registry.ListTools(ctx, sessionID)
}

func (h *hostImpl) CallMCPTool(
	ctx context.Context,
	sessionID int,
	name string,
	args map[string]any,
) (string, error) {
	if h.closed.Load() {
		return "", errors.ErrHostClosed
	}

	return h.registry.CallTool(ctx, sessionID, name, args)
}

func (h *hostImpl) RenameMCPServer(sessionID int, oldName, newName string) error {
	if h.closed.Load() {
		return errors.ErrHostClosed
	}

	h.registry.RenameServer(sessionID, oldName, newName)

	return nil
}

func (h *hostImpl) PeerInfo(
	ctx context.Context,
	command string,
	args []string,
	env map[string]string,
) (string, error) {
	if h.closed.Load() {
		return "", errors.ErrHostClosed
	}

	handle, err := h.launcher.Launch(ctx, &mcp.StdioServerConfig{
		Command: command,
		Args:    args,
		Env:     env,
	})
	if err != nil {
		return "", err
	}

	defer handle.Kill()

	data, err := json.Marshal(handle.PeerInfo())
	if err != nil {
		return "", fmt.Errorf("marshal peer info: %w", err)
	}

	return string(data), nil
}

func (h *hostImpl) ListMCPServers(sessionID int) ([]ServerStatus, error) {
	if h.closed.Load() {
		return nil, errors.ErrHostClosed
	}

	return h.registry.ListServers(sessionID), nil
}

// Close marks the host closed and sweeps every process it spawned. Sweep
// failures are logged; Close itself never fails.
func (h *hostImpl) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)

		if !h.opts.KillOnExit {
			h.log.Debug("Skipping exit sweep")

			return
		}

		// The host's own pid is the root, so only descendants are killed.
		root := int32(os.Getpid()) //nolint:gosec // pids fit in int32

		killed, err := h.terminator.KillDescendants(context.Background(), root)
		if err != nil {
			h.log.Error("Exit sweep failed", "pid", root, "error", err)

			return
		}

		h.log.Info("Exit sweep complete", "pid", root, "killed", killed)
	})

	return nil
}
