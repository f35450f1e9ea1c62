package mcp_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcphost-go/internal/errors"
	"github.com/wagiedev/mcphost-go/internal/mcp"
	"github.com/wagiedev/mcphost-go/internal/mcptest"
)

func searchServer() *mcptest.Server {
	return &mcptest.Server{
		Name:    "search",
		Version: "2.0.0",
		Tools: []mcptest.Tool{
			{Name: "web_search", Description: "searches the web", Properties: map[string]string{"query": "string"}},
			{Name: "news", Description: "recent headlines"},
		},
	}
}

func TestConnect_NameAndPeerInfo(t *testing.T) {
	handle, proc, err := mcptest.Connect(context.Background(), searchServer(), &mcp.StdioServerConfig{
		Command: "uvx",
		Args:    []string{"mcp-server-search"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { handle.Kill() })

	require.Equal(t, "search", handle.Name())
	require.Equal(t, proc.PID(), handle.PID())

	peer := handle.PeerInfo()
	require.NotNil(t, peer)
	require.Equal(t, "search", peer.ServerInfo.Name)
	require.Equal(t, "2.0.0", peer.ServerInfo.Version)
}

func TestServer_Tools(t *testing.T) {
	handle, _, err := mcptest.Connect(context.Background(), searchServer(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Kill() })

	tools, err := handle.Tools(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}

	require.ElementsMatch(t, []string{"web_search", "news"}, names)
}

func TestServer_ToolsWithoutCapability(t *testing.T) {
	handle, _, err := mcptest.Connect(context.Background(), &mcptest.Server{Name: "empty"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Kill() })

	tools, err := handle.Tools(context.Background())
	require.NoError(t, err)
	require.Empty(t, tools)
}

func TestServer_CallTool(t *testing.T) {
	handle, _, err := mcptest.Connect(context.Background(), searchServer(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Kill() })

	out, err := handle.CallTool(context.Background(), "web_search", map[string]any{"query": "go"})
	require.NoError(t, err)
	require.JSONEq(t, `{"content":[{"type":"text","text":"search/web_search {\"query\":\"go\"}"}]}`, out)

	out, err = handle.CallTool(context.Background(), "news", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"content":[{"type":"text","text":"search/news {}"}]}`, out)
}

func TestServer_CallToolErrorResultStaysInBand(t *testing.T) {
	spec := &mcptest.Server{
		Name: "flaky",
		Tools: []mcptest.Tool{{
			Name: "fail",
			Handler: func(context.Context, map[string]any) (*mcptest.Result, error) {
				return nil, stderrors.New("boom")
			},
		}},
	}

	handle, _, err := mcptest.Connect(context.Background(), spec, nil)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Kill() })

	out, err := handle.CallTool(context.Background(), "fail", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"content":[{"type":"text","text":"boom"}],"isError":true}`, out)
}

func TestServer_SetName(t *testing.T) {
	handle, _, err := mcptest.Connect(context.Background(), searchServer(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Kill() })

	handle.SetName("web")

	require.Equal(t, "web", handle.Name())
	require.Equal(t, "search", handle.PeerInfo().ServerInfo.Name)
}

func TestServer_KillIsIdempotent(t *testing.T) {
	handle, proc, err := mcptest.Connect(context.Background(), searchServer(), nil)
	require.NoError(t, err)

	require.True(t, handle.Kill())
	require.True(t, proc.Killed())
	require.False(t, handle.Kill())
}

func TestServer_KillAbortsInFlightCall(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	spec := &mcptest.Server{
		Name:  "slow",
		Tools: []mcptest.Tool{{Name: "wait", Handler: mcptest.Block(release, entered)}},
	}

	handle, _, err := mcptest.Connect(context.Background(), spec, nil)
	require.NoError(t, err)

	t.Cleanup(func() { close(release) })

	errs := make(chan error, 1)

	go func() {
		_, err := handle.CallTool(context.Background(), "wait", nil)
		errs <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("tool call never reached the server")
	}

	handle.Kill()

	select {
	case err := <-errs:
		require.ErrorIs(t, err, errors.ErrServerKilled)

		target, ok := stderrors.AsType[*errors.ToolExecutionError](err)
		require.True(t, ok)
		require.Equal(t, "wait", target.Tool)
		require.Equal(t, "slow", target.Server)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight call was not aborted by Kill")
	}
}

func TestServer_ToolsAfterKill(t *testing.T) {
	handle, _, err := mcptest.Connect(context.Background(), searchServer(), nil)
	require.NoError(t, err)

	handle.Kill()

	_, err = handle.Tools(context.Background())
	require.ErrorIs(t, err, errors.ErrServerKilled)
	require.IsType(t, &errors.ProtocolError{}, err)
}
