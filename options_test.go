package mcphost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcphost-go/internal/config"
)

func TestApplyOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts := applyOptions(nil)

		require.Equal(t, config.DefaultClientName, opts.ClientName)
		require.True(t, opts.KillOnExit)
		require.Nil(t, opts.Launcher)
	})

	t.Run("overrides", func(t *testing.T) {
		opts := applyOptions([]Option{
			WithResourceDir("/opt/app/resources"),
			WithClientInfo("desk", "9.9.9"),
			WithEnv(map[string]string{"A": "1", "B": "1"}),
			WithEnv(map[string]string{"B": "2"}),
			WithProbeRuntimes("bunx"),
			WithHandshakeTimeout(5 * time.Second),
			WithKillOnExit(false),
		})

		require.Equal(t, "/opt/app/resources", opts.ResourceDir)
		require.Equal(t, "desk", opts.ClientName)
		require.Equal(t, "9.9.9", opts.ClientVersion)
		require.Equal(t, map[string]string{"A": "1", "B": "2"}, opts.Env)
		require.Equal(t, []string{"bunx"}, opts.ProbeRuntimes)
		require.Equal(t, 5*time.Second, opts.HandshakeTimeout)
		require.False(t, opts.KillOnExit)
	})

	t.Run("with options then override", func(t *testing.T) {
		base := DefaultOptions()
		base.ResourceDir = "/from/file"

		opts := applyOptions([]Option{WithOptions(base), WithResourceDir("/from/flag")})

		require.Equal(t, "/from/flag", opts.ResourceDir)
		require.Equal(t, "/from/file", base.ResourceDir)
	})
}

func TestNewHost_DefaultLauncher(t *testing.T) {
	h := newHostImpl(applyOptions([]Option{WithKillOnExit(false)}))

	require.NotNil(t, h.launcher)
	require.NotNil(t, h.log)
	require.NoError(t, h.Close())
}
