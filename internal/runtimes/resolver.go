package runtimes

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/wagiedev/mcphost-go/internal/errors"
)

// executables maps each supported runtime onto its bundled executable name.
var executables = map[string]string{
	"python": "python",
	"uvx":    "uvx",
	"node":   "node",
	"npx":    "npx",
	"bunx":   "bunx",
}

// Supported returns the supported runtime names in sorted order.
func Supported() []string {
	return slices.Sorted(maps.Keys(executables))
}

// Config holds configuration for runtime resolution.
type Config struct {
	// ResourceDir is the bundled resource directory. If empty, executables
	// are searched on PATH.
	ResourceDir string

	// Env is appended to the inherited environment of every command.
	Env map[string]string

	// Logger is an optional logger for resolution. If nil, logging is disabled.
	Logger *slog.Logger
}

// Resolver maps logical runtime names onto executables.
type Resolver interface {
	// Resolve returns the executable path for runtime.
	// Returns UnsupportedRuntimeError for names outside the supported set.
	Resolve(runtime string) (string, error)

	// Command builds an unstarted command for runtime with args and env.
	// Entries in env override Config.Env and the inherited environment.
	Command(runtime string, args []string, env map[string]string) (*exec.Cmd, error)
}

// resolver implements the Resolver interface.
type resolver struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that resolver implements Resolver.
var _ Resolver = (*resolver)(nil)

// NewResolver creates a new runtime resolver with the given configuration.
func NewResolver(cfg *Config) Resolver {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &resolver{
		cfg: cfg,
		log: log.With("component", "runtime_resolver"),
	}
}

// Resolve returns the executable path for runtime.
func (r *resolver) Resolve(runtime string) (string, error) {
	name, ok := executables[runtime]
	if !ok {
		r.log.Debug("Rejected unsupported runtime", "runtime", runtime)

		return "", &errors.UnsupportedRuntimeError{Runtime: runtime}
	}

	if r.cfg.ResourceDir != "" {
		path := filepath.Join(r.cfg.ResourceDir, name)
		r.log.Debug("Resolved bundled runtime", "runtime", runtime, "path", path)

		return path, nil
	}

	if path, err := exec.LookPath(name); err == nil {
		r.log.Debug("Resolved runtime on PATH", "runtime", runtime, "path", path)

		return path, nil
	}

	// Leave it to exec to report the missing binary at spawn time.
	r.log.Debug("Runtime not found on PATH", "runtime", runtime)

	return name, nil
}

// Command builds an unstarted command for runtime.
func (r *resolver) Command(runtime string, args []string, env map[string]string) (*exec.Cmd, error) {
	path, err := r.Resolve(runtime)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G204: launching user-configured MCP servers is the point
	cmd := exec.Command(path, args...)
	cmd.Env = BuildEnvironment(r.cfg.Env, env)
	setParentDeathSignal(cmd)

	return cmd, nil
}

// BuildEnvironment returns the inherited environment followed by each layer
// of overrides in order. Later entries win when the process reads its env.
func BuildEnvironment(layers ...map[string]string) []string {
	env := os.Environ()

	for _, layer := range layers {
		for _, key := range slices.Sorted(maps.Keys(layer)) {
			env = append(env, fmt.Sprintf("%s=%s", key, layer[key]))
		}
	}

	return env
}
