//go:build linux

package runtimes

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommand_SetsParentDeathSignal(t *testing.T) {
	resolver := NewResolver(&Config{ResourceDir: t.TempDir()})

	cmd, err := resolver.Command("node", []string{"server.js"}, nil)

	require.NoError(t, err)
	require.NotNil(t, cmd.SysProcAttr)
	require.Equal(t, syscall.SIGKILL, cmd.SysProcAttr.Pdeathsig)
}
