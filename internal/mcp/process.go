package mcp

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/wagiedev/mcphost-go/internal/proctree"
)

// Process is the OS side of a server: something with a pid that can be
// signalled.
type Process interface {
	// PID returns the process id, or 0 when the process never started.
	PID() int

	// Kill signals the process. It reports whether a live process was
	// found; an already exited process is not an error.
	Kill() bool
}

// cmdProcess adapts an exec.Cmd started by a command transport. The
// transport sets cmd.Process during Connect, before any Kill can run.
type cmdProcess struct {
	cmd *exec.Cmd
}

// Compile-time verification that cmdProcess implements Process.
var _ Process = (*cmdProcess)(nil)

func (p *cmdProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Kill signals the process even when it has already exited, so the transport
// can reap it, but only reports true for a process that was still running.
// Signalling an unreaped zombie succeeds, so liveness is read first.
func (p *cmdProcess) Kill() bool {
	if p.cmd.Process == nil {
		return false
	}

	alive := proctree.Running(context.Background(), int32(p.cmd.Process.Pid))

	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return false
	}

	return err == nil && alive
}
