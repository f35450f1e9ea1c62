// Package config provides configuration types for the MCP session host.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/wagiedev/mcphost-go/internal/mcp"
	"github.com/wagiedev/mcphost-go/internal/proctree"
)

const (
	// DefaultClientName is the client name sent in the MCP initialize request.
	DefaultClientName = "mcphost"

	// DefaultClientVersion is the client version sent in the MCP initialize request.
	DefaultClientVersion = "0.1.0"

	// DefaultProbeTimeout bounds a single bootstrap probe.
	DefaultProbeTimeout = 30 * time.Second
)

// DefaultProbeRuntimes are the package-runner launchers warmed up at startup.
var DefaultProbeRuntimes = []string{"uvx", "npx"}

// Options configures the behavior of the host.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// ResourceDir is the directory holding the bundled runtime executables.
	// If empty, runtimes are looked up on PATH.
	ResourceDir string

	// ClientName and ClientVersion identify the host during the MCP handshake.
	ClientName    string
	ClientVersion string

	// Env provides additional environment variables for every spawned server.
	// Per-server env passed to StartServer takes precedence.
	Env map[string]string

	// ProbeRuntimes lists runtimes invoked once at startup to warm them up.
	ProbeRuntimes []string

	// ProbeArgs are the no-op arguments passed to each probed runtime.
	ProbeArgs []string

	// ProbeTimeout bounds each probe. Zero uses DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// HandshakeTimeout bounds spawn plus initialize. Zero means no bound.
	HandshakeTimeout time.Duration

	// KillOnExit makes Close sweep every descendant of the current process.
	KillOnExit bool

	// Launcher starts MCP servers. If nil, servers are spawned as stdio
	// subprocesses of the resolved runtimes.
	Launcher mcp.Launcher

	// ProcessTable is the process table swept on Close. If nil, the live
	// OS process table is used.
	ProcessTable proctree.Table
}

// envOptions holds the environment overrides decoded by envdecode.
type envOptions struct {
	ResourceDir      string        `env:"MCPHOST_RESOURCE_DIR"`
	ClientName       string        `env:"MCPHOST_CLIENT_NAME"`
	ProbeRuntimes    string        `env:"MCPHOST_PROBE_RUNTIMES"`
	ProbeTimeout     time.Duration `env:"MCPHOST_PROBE_TIMEOUT"`
	HandshakeTimeout time.Duration `env:"MCPHOST_HANDSHAKE_TIMEOUT"`
	LogLevel         string        `env:"MCPHOST_LOG_LEVEL"`
}

// Default returns Options populated with defaults.
func Default() *Options {
	return &Options{
		ClientName:    DefaultClientName,
		ClientVersion: DefaultClientVersion,
		ProbeRuntimes: append([]string(nil), DefaultProbeRuntimes...),
		ProbeArgs:     []string{"--help"},
		ProbeTimeout:  DefaultProbeTimeout,
		KillOnExit:    true,
	}
}

// Normalize fills zero-valued fields with their defaults.
func (o *Options) Normalize() {
	if o.ClientName == "" {
		o.ClientName = DefaultClientName
	}

	if o.ClientVersion == "" {
		o.ClientVersion = DefaultClientVersion
	}

	if o.ProbeArgs == nil {
		o.ProbeArgs = []string{"--help"}
	}

	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
}

// ApplyEnv overlays MCPHOST_* environment variables onto o and returns the
// requested log level, or an empty string when MCPHOST_LOG_LEVEL is unset.
func (o *Options) ApplyEnv() (string, error) {
	var env envOptions

	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return "", nil
		}

		return "", fmt.Errorf("decode environment: %w", err)
	}

	if env.ResourceDir != "" {
		o.ResourceDir = env.ResourceDir
	}

	if env.ClientName != "" {
		o.ClientName = env.ClientName
	}

	if env.ProbeRuntimes != "" {
		o.ProbeRuntimes = SplitList(env.ProbeRuntimes)
	}

	if env.ProbeTimeout > 0 {
		o.ProbeTimeout = env.ProbeTimeout
	}

	if env.HandshakeTimeout > 0 {
		o.HandshakeTimeout = env.HandshakeTimeout
	}

	return env.LogLevel, nil
}

// ParseLevel maps a textual log level onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}

	return level, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
