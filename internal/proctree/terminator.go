package proctree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Terminator kills process trees.
type Terminator struct {
	log   *slog.Logger
	table Table
}

// NewTerminator creates a terminator over table. A nil table uses the live
// OS process table.
func NewTerminator(log *slog.Logger, table Table) *Terminator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if table == nil {
		table = SystemTable{}
	}

	return &Terminator{
		log:   log.With("component", "proctree"),
		table: table,
	}
}

// KillTree kills every descendant of root and then root itself. It reports
// whether root was found and signalled; an already exited root yields false.
// Failures to kill individual descendants are logged, not returned.
func (t *Terminator) KillTree(ctx context.Context, root int32) (bool, error) {
	tree, err := t.snapshot(ctx, root)
	if err != nil {
		return false, err
	}

	t.killAll(ctx, root, tree.Descendants(root))

	if !tree.Contains(root) {
		t.log.Debug("Root process not in snapshot", "pid", root)

		return false, nil
	}

	killed, err := t.table.Kill(ctx, root)
	if err != nil {
		return false, err
	}

	t.log.Info("Killed process tree", "pid", root, "root_alive", killed)

	return killed, nil
}

// KillDescendants kills every descendant of root but leaves root running.
// It returns the number of processes that were alive and signalled.
func (t *Terminator) KillDescendants(ctx context.Context, root int32) (int, error) {
	tree, err := t.snapshot(ctx, root)
	if err != nil {
		return 0, err
	}

	return t.killAll(ctx, root, tree.Descendants(root)), nil
}

func (t *Terminator) snapshot(ctx context.Context, root int32) (*Tree, error) {
	if root <= 0 {
		return nil, fmt.Errorf("invalid root pid %d", root)
	}

	nodes, err := t.table.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot process table: %w", err)
	}

	return Build(nodes), nil
}

func (t *Terminator) killAll(ctx context.Context, root int32, pids []int32) int {
	killed := 0

	for _, pid := range pids {
		alive, err := t.table.Kill(ctx, pid)
		if err != nil {
			t.log.Warn("Failed to kill descendant", "root_pid", root, "pid", pid, "error", err)

			continue
		}

		if alive {
			killed++
		}
	}

	t.log.Debug("Killed descendants", "root_pid", root, "found", len(pids), "killed", killed)

	return killed
}
