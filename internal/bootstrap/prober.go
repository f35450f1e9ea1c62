package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcphost-go/internal/config"
	"github.com/wagiedev/mcphost-go/internal/runtimes"
)

// ProbeResult is the outcome of probing one runtime.
type ProbeResult struct {
	Runtime string
	Path    string
	Elapsed time.Duration
	Err     error
}

// OK reports whether the runtime ran and exited successfully.
func (r ProbeResult) OK() bool {
	return r.Err == nil
}

// Config configures a Prober.
type Config struct {
	Resolver runtimes.Resolver
	Runtimes []string
	Args     []string

	// Timeout bounds each probe. Zero uses config.DefaultProbeTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// Prober runs each configured runtime once.
type Prober struct {
	cfg Config
	log *slog.Logger
}

// NewProber creates a prober.
func NewProber(cfg Config) *Prober {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultProbeTimeout
	}

	return &Prober{cfg: cfg, log: log.With("component", "bootstrap")}
}

// Probe runs every runtime concurrently and returns one result per runtime
// in configuration order. It never fails; failures are reported in the
// results and logged.
func (p *Prober) Probe(ctx context.Context) []ProbeResult {
	results := make([]ProbeResult, len(p.cfg.Runtimes))

	var g errgroup.Group

	for i, runtime := range p.cfg.Runtimes {
		g.Go(func() error {
			results[i] = p.probe(ctx, runtime)

			return nil
		})
	}

	_ = g.Wait()

	for _, r := range results {
		if r.OK() {
			p.log.Info("Runtime ready", "runtime", r.Runtime, "path", r.Path, "elapsed", r.Elapsed)

			continue
		}

		p.log.Warn("Runtime probe failed", "runtime", r.Runtime, "error", r.Err)
	}

	return results
}

func (p *Prober) probe(ctx context.Context, runtime string) ProbeResult {
	start := time.Now()
	result := ProbeResult{Runtime: runtime}

	cmd, err := p.cfg.Resolver.Command(runtime, p.cfg.Args, nil)
	if err != nil {
		result.Err = err

		return result
	}

	result.Path = cmd.Path

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := cmd.Start(); err != nil {
		result.Err = fmt.Errorf("start %s: %w", runtime, err)

		return result
	}

	p.log.Debug("Probing runtime", "runtime", runtime, "pid", cmd.Process.Pid)

	done := make(chan error, 1)

	go func() { done <- cmd.Wait() }()

	select {
	case err = <-done:
		if err != nil {
			err = fmt.Errorf("run %s: %w", runtime, err)
		}

	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done

		err = fmt.Errorf("probe %s: %w", runtime, context.Cause(ctx))
	}

	result.Elapsed = time.Since(start)
	result.Err = err

	return result
}
