package proctree

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// Node is one (pid, parent pid) pair of a process-table snapshot.
type Node struct {
	PID  int32
	PPID int32
}

// Table is the OS process table.
type Table interface {
	// Snapshot lists every process visible at one point in time.
	Snapshot(ctx context.Context) ([]Node, error)

	// Kill sends SIGKILL (or the platform equivalent) to pid and reports
	// whether the process was alive.
	Kill(ctx context.Context, pid int32) (bool, error)
}

// SystemTable reads the live process table through gopsutil.
type SystemTable struct{}

// Compile-time verification that SystemTable implements Table.
var _ Table = SystemTable{}

// Snapshot lists every running process. Processes that exit while the
// table is being read are skipped.
func (SystemTable) Snapshot(ctx context.Context) ([]Node, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	nodes := make([]Node, 0, len(procs))

	for _, p := range procs {
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			continue
		}

		nodes = append(nodes, Node{PID: p.Pid, PPID: ppid})
	}

	return nodes, nil
}

// Kill signals pid. A process that is already gone yields false, not an error.
func (SystemTable) Kill(ctx context.Context, pid int32) (bool, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("open process %d: %w", pid, err)
	}

	if !running(ctx, p) {
		return false, nil
	}

	if err := p.KillWithContext(ctx); err != nil {
		if running, _ := p.IsRunningWithContext(ctx); !running {
			return false, nil
		}

		return false, fmt.Errorf("kill process %d: %w", pid, err)
	}

	return true, nil
}

// Running reports whether pid exists and has not exited. An exited child
// that its parent has not reaped yet is a zombie and counts as exited.
func Running(ctx context.Context, pid int32) bool {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return false
	}

	return running(ctx, p)
}

func running(ctx context.Context, p *process.Process) bool {
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		ok, _ := p.IsRunningWithContext(ctx)

		return ok
	}

	return !slices.Contains(status, process.Zombie)
}
