//go:build linux

package mcp

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcphost-go/internal/proctree"
)

func TestCmdProcess_KillRunning(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())

	proc := &cmdProcess{cmd: cmd}

	require.True(t, proc.Kill())
	require.Error(t, cmd.Wait())
	require.False(t, proc.Kill())
}

func TestCmdProcess_KillUnreapedExit(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())

	t.Cleanup(func() { _ = cmd.Wait() })

	pid := int32(cmd.Process.Pid)
	require.Eventually(t, func() bool {
		return !proctree.Running(context.Background(), pid)
	}, 5*time.Second, 10*time.Millisecond)

	proc := &cmdProcess{cmd: cmd}
	require.Equal(t, cmd.Process.Pid, proc.PID())
	require.False(t, proc.Kill())
}

func TestCmdProcess_NotStarted(t *testing.T) {
	proc := &cmdProcess{cmd: exec.Command("true")}

	require.Zero(t, proc.PID())
	require.False(t, proc.Kill())
}
