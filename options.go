package mcphost

import (
	"log/slog"
	"maps"
	"time"

	"github.com/wagiedev/mcphost-go/internal/config"
)

// Options configures a Host.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// DefaultOptions returns the options a Host uses when no Option is given.
func DefaultOptions() *Options {
	return config.Default()
}

// applyOptions applies functional options on top of the defaults.
func applyOptions(opts []Option) *Options {
	options := config.Default()
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithOptions replaces the whole configuration with a copy of o. Options
// given after it still apply.
func WithOptions(o *Options) Option {
	return func(dst *Options) {
		*dst = *o
	}
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithResourceDir sets the directory holding the bundled runtimes.
// If not set, runtimes are looked up on PATH.
func WithResourceDir(dir string) Option {
	return func(o *Options) {
		o.ResourceDir = dir
	}
}

// WithClientInfo sets the client identity sent in the MCP handshake.
func WithClientInfo(name, version string) Option {
	return func(o *Options) {
		o.ClientName = name
		o.ClientVersion = version
	}
}

// WithEnv adds environment variables passed to every spawned server.
// Repeated calls merge; later values win.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithProbeRuntimes sets the runtimes warmed up by the bootstrap prober.
func WithProbeRuntimes(runtimes ...string) Option {
	return func(o *Options) {
		o.ProbeRuntimes = runtimes
	}
}

// WithHandshakeTimeout bounds spawning a server plus its MCP handshake.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.HandshakeTimeout = timeout
	}
}

// WithKillOnExit controls whether Close sweeps the host's descendant
// processes. Enabled by default.
func WithKillOnExit(enabled bool) Option {
	return func(o *Options) {
		o.KillOnExit = enabled
	}
}

// WithLauncher replaces the stdio launcher, for example with one that
// connects to in-process servers.
func WithLauncher(launcher Launcher) Option {
	return func(o *Options) {
		o.Launcher = launcher
	}
}

// WithProcessTable replaces the OS process table swept by Close.
func WithProcessTable(table ProcessTable) Option {
	return func(o *Options) {
		o.ProcessTable = table
	}
}
