package mcphost_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	mcphost "github.com/wagiedev/mcphost-go"
	"github.com/wagiedev/mcphost-go/internal/mcptest"
)

// recordingTable is a ProcessTable whose snapshot is a fixed tree below the
// test process.
type recordingTable struct {
	mu     sync.Mutex
	nodes  []mcphost.ProcessNode
	killed []int32
}

func newRecordingTable() *recordingTable {
	self := int32(os.Getpid())

	return &recordingTable{nodes: []mcphost.ProcessNode{
		{PID: self, PPID: 1},
		{PID: 900001, PPID: self},
		{PID: 900002, PPID: 900001},
		{PID: 900003, PPID: 1},
	}}
}

func (r *recordingTable) Snapshot(context.Context) ([]mcphost.ProcessNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]mcphost.ProcessNode(nil), r.nodes...), nil
}

func (r *recordingTable) Kill(_ context.Context, pid int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.killed = append(r.killed, pid)

	return true, nil
}

func (r *recordingTable) Killed() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int32(nil), r.killed...)
}

func newTestHost(t *testing.T) (mcphost.Host, *mcptest.Launcher, *recordingTable) {
	t.Helper()

	launcher := mcptest.NewLauncher()
	launcher.Register("uvx", []string{"mcp-server-search"}, &mcptest.Server{
		Name:    "search",
		Version: "2.1.0",
		Tools: []mcptest.Tool{
			{Name: "web_search", Description: "Search the web", Properties: map[string]string{"query": "string"}},
		},
	})
	launcher.Register("npx", []string{"-y", "@mcp/files"}, &mcptest.Server{
		Name: "files",
		Tools: []mcptest.Tool{
			{Name: "read_file"},
			{Name: "write_file"},
		},
	})

	table := newRecordingTable()
	host := mcphost.NewHost(
		mcphost.WithLauncher(launcher),
		mcphost.WithProcessTable(table),
	)

	t.Cleanup(func() { _ = host.Close() })

	return host, launcher, table
}

func toolNames(tools []*mcphost.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}

	return names
}

func TestHost_EndToEndSession(t *testing.T) {
	ctx := context.Background()
	host, launcher, _ := newTestHost(t)

	status, err := host.StartMCPServer(ctx, 7, "uvx", []string{"mcp-server-search"}, nil)
	require.NoError(t, err)
	require.Equal(t, "search", status.Name)
	require.Equal(t, "2.1.0", status.Version)
	require.Equal(t, []string{"web_search"}, status.Tools)

	tools, err := host.GetMCPTools(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"web_search"}, toolNames(tools))

	require.NoError(t, host.RenameMCPServer(7, "search", "web"))

	result, err := host.CallMCPTool(ctx, 7, "web_search", map[string]any{})
	require.NoError(t, err)
	require.Contains(t, result, "search/web_search")

	servers, err := host.ListMCPServers(7)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	require.Equal(t, "web", servers[0].Name)
	require.Equal(t, launcher.Launched()[0].Process.PID(), servers[0].PID)

	require.NoError(t, host.StopSession(7))

	tools, err = host.GetMCPTools(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, tools)
	require.True(t, launcher.Launched()[0].Process.Killed())
}

func TestHost_StartErrors(t *testing.T) {
	ctx := context.Background()
	host, _, _ := newTestHost(t)

	_, err := host.StartMCPServer(ctx, 1, "uvx", []string{"mcp-server-search"}, nil)
	require.NoError(t, err)

	_, err = host.StartMCPServer(ctx, 1, "uvx", []string{"mcp-server-search"}, nil)

	dup, ok := errors.AsType[*mcphost.DuplicateServerNameError](err)
	require.True(t, ok, "expected DuplicateServerNameError, got %v", err)
	require.Equal(t, "search", dup.Name)

	_, err = host.StartMCPServer(ctx, 1, "uvx", []string{"not-registered"}, nil)

	_, ok = errors.AsType[*mcphost.SpawnError](err)
	require.True(t, ok, "expected SpawnError, got %v", err)
}

func TestHost_CallErrors(t *testing.T) {
	ctx := context.Background()
	host, _, _ := newTestHost(t)

	_, err := host.CallMCPTool(ctx, 3, "web_search", nil)

	notFound, ok := errors.AsType[*mcphost.ToolNotFoundError](err)
	require.True(t, ok)
	require.Equal(t, 3, notFound.SessionID)
}

func TestHost_IdempotentTeardown(t *testing.T) {
	ctx := context.Background()
	host, _, _ := newTestHost(t)

	require.NoError(t, host.StopMCPServer(99, "ghost"))
	require.NoError(t, host.StopSession(99))
	require.NoError(t, host.RenameMCPServer(99, "a", "b"))

	_, err := host.StartMCPServer(ctx, 2, "npx", []string{"-y", "@mcp/files"}, nil)
	require.NoError(t, err)

	require.NoError(t, host.StopMCPServer(2, "files"))
	require.NoError(t, host.StopMCPServer(2, "files"))

	servers, err := host.ListMCPServers(2)
	require.NoError(t, err)
	require.Empty(t, servers)
}

func TestHost_PeerInfo(t *testing.T) {
	ctx := context.Background()
	host, launcher, _ := newTestHost(t)

	info, err := host.PeerInfo(ctx, "uvx", []string{"mcp-server-search"}, nil)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(info), &decoded))

	serverInfo, ok := decoded["serverInfo"].(map[string]any)
	require.True(t, ok, "missing serverInfo in %s", info)
	require.Equal(t, "search", serverInfo["name"])

	// The probe server is not admitted into any session and is killed.
	launched := launcher.Launched()
	require.Len(t, launched, 1)
	require.True(t, launched[0].Process.Killed())

	servers, err := host.ListMCPServers(0)
	require.NoError(t, err)
	require.Empty(t, servers)
}

func TestHost_CloseSweepsDescendants(t *testing.T) {
	ctx := context.Background()
	host, _, table := newTestHost(t)

	require.NoError(t, host.Close())
	require.NoError(t, host.Close())

	require.ElementsMatch(t, []int32{900001, 900002}, table.Killed())

	_, err := host.StartMCPServer(ctx, 1, "uvx", []string{"mcp-server-search"}, nil)
	require.ErrorIs(t, err, mcphost.ErrHostClosed)

	_, err = host.GetMCPTools(ctx, 1)
	require.ErrorIs(t, err, mcphost.ErrHostClosed)

	_, err = host.CallMCPTool(ctx, 1, "web_search", nil)
	require.ErrorIs(t, err, mcphost.ErrHostClosed)

	require.ErrorIs(t, host.StopSession(1), mcphost.ErrHostClosed)
}

func TestHost_CloseWithoutSweep(t *testing.T) {
	table := newRecordingTable()
	host := mcphost.NewHost(
		mcphost.WithLauncher(mcptest.NewLauncher()),
		mcphost.WithProcessTable(table),
		mcphost.WithKillOnExit(false),
	)

	require.NoError(t, host.Close())
	require.Empty(t, table.Killed())
}

func TestWithHost(t *testing.T) {
	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := mcphost.WithHost(ctx, func(mcphost.Host) error {
			t.Error("callback should not be called with cancelled context")

			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("callback error is returned and host is closed", func(t *testing.T) {
		table := newRecordingTable()
		boom := errors.New("boom")

		var captured mcphost.Host

		err := mcphost.WithHost(context.Background(), func(h mcphost.Host) error {
			captured = h

			return boom
		},
			mcphost.WithLauncher(mcptest.NewLauncher()),
			mcphost.WithProcessTable(table),
		)
		require.ErrorIs(t, err, boom)
		require.ErrorIs(t, captured.StopSession(1), mcphost.ErrHostClosed)
		require.NotEmpty(t, table.Killed())
	})
}
