package bootstrap

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcphost-go/internal/errors"
	"github.com/wagiedev/mcphost-go/internal/runtimes"
)

// writeScript places an executable shell script named name in dir.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func newTestProber(t *testing.T, probe []string, timeout time.Duration) *Prober {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	dir := t.TempDir()
	writeScript(t, dir, "uvx", `[ "$1" = "--help" ] || exit 9`)
	writeScript(t, dir, "npx", "exit 3")
	writeScript(t, dir, "node", "exec sleep 30")

	return NewProber(Config{
		Resolver: runtimes.NewResolver(&runtimes.Config{ResourceDir: dir}),
		Runtimes: probe,
		Args:     []string{"--help"},
		Timeout:  timeout,
		Logger:   slog.Default(),
	})
}

func TestProbe_Success(t *testing.T) {
	p := newTestProber(t, []string{"uvx"}, time.Second)

	results := p.Probe(context.Background())

	require.Len(t, results, 1)
	require.Equal(t, "uvx", results[0].Runtime)
	require.True(t, results[0].OK(), "unexpected error: %v", results[0].Err)
	require.Equal(t, "uvx", filepath.Base(results[0].Path))
}

func TestProbe_FailuresAreReportedNotFatal(t *testing.T) {
	p := newTestProber(t, []string{"npx", "cargo", "uvx", "bunx"}, time.Second)

	results := p.Probe(context.Background())

	require.Len(t, results, 4)

	// Results keep configuration order.
	require.Equal(t, "npx", results[0].Runtime)
	require.Error(t, results[0].Err)

	require.Equal(t, "cargo", results[1].Runtime)

	unsupported, ok := stderrors.AsType[*errors.UnsupportedRuntimeError](results[1].Err)
	require.True(t, ok)
	require.Equal(t, "cargo", unsupported.Runtime)

	require.True(t, results[2].OK())

	// bunx is supported but absent from the resource dir.
	require.Equal(t, "bunx", results[3].Runtime)
	require.Error(t, results[3].Err)
}

func TestProbe_Timeout(t *testing.T) {
	p := newTestProber(t, []string{"node"}, 100*time.Millisecond)

	start := time.Now()
	results := p.Probe(context.Background())

	require.Less(t, time.Since(start), 10*time.Second)
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestProbe_NoRuntimes(t *testing.T) {
	p := NewProber(Config{Resolver: runtimes.NewResolver(nil)})

	require.Empty(t, p.Probe(context.Background()))
}

func TestNewProber_DefaultTimeout(t *testing.T) {
	p := NewProber(Config{})

	require.Positive(t, p.cfg.Timeout)
}
