package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mcphost "github.com/wagiedev/mcphost-go"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mcphost.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
resource_dir = "/opt/app/resources"
client_name = "desk"
probe_runtimes = ["uvx", " ", "bunx"]
probe_timeout = "5s"
handshake_timeout = "1m"
kill_on_exit = false
log_level = "debug"

[env]
UV_NO_CACHE = "1"
`)

	opts := mcphost.DefaultOptions()

	level, err := loadConfig(path, opts)
	require.NoError(t, err)

	require.Equal(t, "debug", level)
	require.Equal(t, "/opt/app/resources", opts.ResourceDir)
	require.Equal(t, "desk", opts.ClientName)
	require.Equal(t, []string{"uvx", "bunx"}, opts.ProbeRuntimes)
	require.Equal(t, 5*time.Second, opts.ProbeTimeout)
	require.Equal(t, time.Minute, opts.HandshakeTimeout)
	require.False(t, opts.KillOnExit)
	require.Equal(t, map[string]string{"UV_NO_CACHE": "1"}, opts.Env)
}

func TestLoadConfigKeepsUndefinedDefaults(t *testing.T) {
	path := writeConfig(t, `client_version = "2.0.0"`)

	opts := mcphost.DefaultOptions()
	defaults := mcphost.DefaultOptions()

	level, err := loadConfig(path, opts)
	require.NoError(t, err)

	require.Empty(t, level)
	require.Equal(t, "2.0.0", opts.ClientVersion)
	require.Equal(t, defaults.ClientName, opts.ClientName)
	require.Equal(t, defaults.ProbeRuntimes, opts.ProbeRuntimes)
	require.Equal(t, defaults.ProbeTimeout, opts.ProbeTimeout)
	require.True(t, opts.KillOnExit)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad duration", body: `probe_timeout = "soon"`},
		{name: "unknown key", body: `resource_directory = "/tmp"`},
		{name: "bad syntax", body: `resource_dir = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body), mcphost.DefaultOptions())
			require.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), mcphost.DefaultOptions())
	require.Error(t, err)
}
