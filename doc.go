// Package mcphost runs Model Context Protocol (MCP) tool servers on behalf of
// chat sessions.
//
// A Host spawns MCP servers as subprocesses through a small set of supported
// runtimes (python, uvx, node, npx, bunx), groups them by session, and routes
// tool calls to whichever server currently advertises the tool. Killing a
// server aborts its in-flight calls; closing the host kills every process it
// spawned, including their own children.
//
// # Basic Usage
//
//	host := mcphost.NewHost(mcphost.WithLogger(slog.Default()))
//	defer host.Close()
//
//	if _, err := host.StartMCPServer(ctx, 7, "uvx", []string{"mcp-server-fetch"}, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	tools, err := host.GetMCPTools(ctx, 7)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := host.CallMCPTool(ctx, 7, tools[0].Name, map[string]any{"url": "https://example.com"})
//
// # Sessions and Routing
//
// Server names are unique within a session: a second server reporting the
// same name is killed and DuplicateServerNameError is returned. When two
// servers advertise the same tool, the server started last owns the route.
// RenameMCPServer relabels a server and moves its routes with it.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	host := mcphost.NewHost(mcphost.WithLogger(logger))
//
// # Error Handling
//
// The package provides typed errors for different failure scenarios:
//
//	_, err := host.CallMCPTool(ctx, 7, "web_search", args)
//	if err != nil {
//	    if notFound, ok := errors.AsType[*mcphost.ToolNotFoundError](err); ok {
//	        log.Printf("no server in session %d offers %s", notFound.SessionID, notFound.Tool)
//	    }
//	    if errors.Is(err, mcphost.ErrServerKilled) {
//	        log.Print("server was stopped during the call")
//	    }
//	}
package mcphost
