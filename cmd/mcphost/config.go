package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	mcphost "github.com/wagiedev/mcphost-go"
	"github.com/wagiedev/mcphost-go/internal/config"
)

type fileConfig struct {
	ResourceDir      string            `toml:"resource_dir"`
	ClientName       string            `toml:"client_name"`
	ClientVersion    string            `toml:"client_version"`
	Env              map[string]string `toml:"env"`
	ProbeRuntimes    []string          `toml:"probe_runtimes"`
	ProbeArgs        []string          `toml:"probe_args"`
	ProbeTimeout     string            `toml:"probe_timeout"`
	HandshakeTimeout string            `toml:"handshake_timeout"`
	KillOnExit       bool              `toml:"kill_on_exit"`
	LogLevel         string            `toml:"log_level"`
}

// loadConfig overlays the keys defined in the TOML file at path onto opts
// and returns the configured log level, if any.
func loadConfig(path string, opts *mcphost.Options) (string, error) {
	var raw fileConfig

	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return "", fmt.Errorf("load mcphost config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return "", fmt.Errorf("load mcphost config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("resource_dir") {
		opts.ResourceDir = strings.TrimSpace(raw.ResourceDir)
	}

	if meta.IsDefined("client_name") {
		if name := strings.TrimSpace(raw.ClientName); name != "" {
			opts.ClientName = name
		}
	}

	if meta.IsDefined("client_version") {
		if version := strings.TrimSpace(raw.ClientVersion); version != "" {
			opts.ClientVersion = version
		}
	}

	if meta.IsDefined("env") {
		opts.Env = raw.Env
	}

	if meta.IsDefined("probe_runtimes") {
		opts.ProbeRuntimes = normalizeList(raw.ProbeRuntimes)
	}

	if meta.IsDefined("probe_args") {
		opts.ProbeArgs = raw.ProbeArgs
	}

	if meta.IsDefined("probe_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ProbeTimeout))
		if err != nil {
			return "", fmt.Errorf("parse probe_timeout: %w", err)
		}

		opts.ProbeTimeout = d
	}

	if meta.IsDefined("handshake_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HandshakeTimeout))
		if err != nil {
			return "", fmt.Errorf("parse handshake_timeout: %w", err)
		}

		opts.HandshakeTimeout = d
	}

	if meta.IsDefined("kill_on_exit") {
		opts.KillOnExit = raw.KillOnExit
	}

	return strings.TrimSpace(raw.LogLevel), nil
}

func normalizeList(in []string) []string {
	return config.SplitList(strings.Join(in, ","))
}
