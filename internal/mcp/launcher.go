package mcp

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcphost-go/internal/runtimes"
)

// Launcher starts MCP servers.
type Launcher interface {
	// Launch spawns the server described by cfg and completes the handshake.
	// Returns UnsupportedRuntimeError, SpawnError or HandshakeError.
	Launch(ctx context.Context, cfg *StdioServerConfig) (Handle, error)
}

// LauncherConfig holds configuration for a StdioLauncher.
type LauncherConfig struct {
	Resolver         runtimes.Resolver
	ClientName       string
	ClientVersion    string
	HandshakeTimeout time.Duration
	Logger           *slog.Logger
}

// StdioLauncher spawns bundled runtimes and speaks MCP over their stdio.
type StdioLauncher struct {
	cfg *LauncherConfig
	log *slog.Logger
}

// Compile-time verification that StdioLauncher implements Launcher.
var _ Launcher = (*StdioLauncher)(nil)

// NewStdioLauncher creates a launcher backed by cfg.Resolver.
func NewStdioLauncher(cfg *LauncherConfig) *StdioLauncher {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &StdioLauncher{
		cfg: cfg,
		log: log,
	}
}

// Launch spawns the server described by cfg.
func (l *StdioLauncher) Launch(ctx context.Context, cfg *StdioServerConfig) (Handle, error) {
	cmd, err := l.cfg.Resolver.Command(cfg.Command, cfg.Args, cfg.Env)
	if err != nil {
		return nil, err
	}

	l.log.Info("Starting MCP server", "command", cfg.Label(), "path", cmd.Path)

	if l.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, l.cfg.HandshakeTimeout)
		defer cancel()
	}

	server, err := Connect(ctx, &ConnectOptions{
		Logger:        l.log,
		ClientName:    l.cfg.ClientName,
		ClientVersion: l.cfg.ClientVersion,
		Transport:     &mcp.CommandTransport{Command: cmd},
		Process:       &cmdProcess{cmd: cmd},
		Config:        cfg,
	})
	if err != nil {
		return nil, err
	}

	return server, nil
}
