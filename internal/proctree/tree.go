package proctree

// Tree indexes a snapshot by parent pid.
type Tree struct {
	present  map[int32]struct{}
	children map[int32][]int32
}

// Build indexes nodes.
func Build(nodes []Node) *Tree {
	t := &Tree{
		present:  make(map[int32]struct{}, len(nodes)),
		children: make(map[int32][]int32, len(nodes)),
	}

	for _, n := range nodes {
		t.present[n.PID] = struct{}{}

		if n.PPID != n.PID {
			t.children[n.PPID] = append(t.children[n.PPID], n.PID)
		}
	}

	return t
}

// Contains reports whether pid was in the snapshot.
func (t *Tree) Contains(pid int32) bool {
	_, ok := t.present[pid]

	return ok
}

// Descendants returns every transitive child of root, parents before their
// children. root itself is excluded. Each pid appears once even if the
// snapshot holds a cycle.
func (t *Tree) Descendants(root int32) []int32 {
	seen := map[int32]struct{}{root: {}}
	queue := append([]int32(nil), t.children[root]...)
	out := make([]int32, 0, len(queue))

	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]

		if _, dup := seen[pid]; dup {
			continue
		}

		seen[pid] = struct{}{}
		out = append(out, pid)
		queue = append(queue, t.children[pid]...)
	}

	return out
}
