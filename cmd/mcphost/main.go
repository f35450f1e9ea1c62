// Command mcphost serves the MCP session host over stdin and stdout.
//
// Each input line is a JSON command_request; each output line is the
// matching command_response. Logs go to stderr. On EOF, SIGINT or SIGTERM
// the host kills every process it spawned and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcphost "github.com/wagiedev/mcphost-go"
	"github.com/wagiedev/mcphost-go/internal/bootstrap"
	"github.com/wagiedev/mcphost-go/internal/config"
	"github.com/wagiedev/mcphost-go/internal/protocol"
	"github.com/wagiedev/mcphost-go/internal/runtimes"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcphost: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	noProbe := flag.Bool("no-probe", false, "skip warming up runtimes at startup")
	flag.Parse()

	opts := mcphost.DefaultOptions()

	var level string

	if *configPath != "" {
		fileLevel, err := loadConfig(*configPath, opts)
		if err != nil {
			return err
		}

		level = fileLevel
	}

	envLevel, err := opts.ApplyEnv()
	if err != nil {
		return err
	}

	if envLevel != "" {
		level = envLevel
	}

	logLevel := slog.LevelInfo

	if level != "" {
		if logLevel, err = config.ParseLevel(level); err != nil {
			return err
		}
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	opts.Logger = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := mcphost.NewHost(mcphost.WithOptions(opts))
	defer func() { _ = host.Close() }()

	if !*noProbe {
		go probeRuntimes(ctx, log, opts)
	}

	dispatcher := protocol.NewDispatcher(log, protocol.NewStream(log, os.Stdin, os.Stdout))
	registerHandlers(dispatcher, host)

	if err := dispatcher.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func probeRuntimes(ctx context.Context, log *slog.Logger, opts *mcphost.Options) {
	prober := bootstrap.NewProber(bootstrap.Config{
		Resolver: runtimes.NewResolver(&runtimes.Config{
			ResourceDir: opts.ResourceDir,
			Env:         opts.Env,
			Logger:      log,
		}),
		Runtimes: opts.ProbeRuntimes,
		Args:     opts.ProbeArgs,
		Timeout:  opts.ProbeTimeout,
		Logger:   log,
	})

	prober.Probe(ctx)
}
