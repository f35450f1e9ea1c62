package proctree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTree_Descendants(t *testing.T) {
	// 1 ── 100 ─┬─ 101
	//           └─ 102 ── 103
	// 1 ── 200
	tree := Build([]Node{
		{PID: 1, PPID: 0},
		{PID: 100, PPID: 1},
		{PID: 101, PPID: 100},
		{PID: 102, PPID: 100},
		{PID: 103, PPID: 102},
		{PID: 200, PPID: 1},
	})

	require.ElementsMatch(t, []int32{101, 102, 103}, tree.Descendants(100))
	require.Equal(t, []int32{103}, tree.Descendants(102))
	require.Empty(t, tree.Descendants(103))
	require.Empty(t, tree.Descendants(999))
	require.ElementsMatch(t, []int32{100, 101, 102, 103, 200}, tree.Descendants(1))
}

func TestTree_DescendantsParentsFirst(t *testing.T) {
	tree := Build([]Node{
		{PID: 10, PPID: 1},
		{PID: 11, PPID: 10},
		{PID: 12, PPID: 11},
	})

	require.Equal(t, []int32{11, 12}, tree.Descendants(10))
}

func TestTree_Cycle(t *testing.T) {
	// Pid reuse can make a stale snapshot look cyclic.
	tree := Build([]Node{
		{PID: 5, PPID: 7},
		{PID: 6, PPID: 5},
		{PID: 7, PPID: 6},
		{PID: 8, PPID: 8},
	})

	require.ElementsMatch(t, []int32{6, 7}, tree.Descendants(5))
	require.Empty(t, tree.Descendants(8))
}

func TestTree_Contains(t *testing.T) {
	tree := Build([]Node{{PID: 42, PPID: 1}})

	require.True(t, tree.Contains(42))
	require.False(t, tree.Contains(1))
}
