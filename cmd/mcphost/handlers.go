package main

import (
	"context"
	"encoding/json"

	mcphost "github.com/wagiedev/mcphost-go"
	"github.com/wagiedev/mcphost-go/internal/protocol"
)

type sessionParams struct {
	SessionID int `json:"session_id"`
}

type startServerParams struct {
	SessionID int               `json:"session_id"`
	Runtime   string            `json:"runtime"`
	Args      []string          `json:"args"`
	Env       map[string]string `json:"env"`
}

type stopServerParams struct {
	SessionID int    `json:"session_id"`
	Name      string `json:"name"`
}

type callToolParams struct {
	SessionID int            `json:"session_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type renameServerParams struct {
	SessionID int    `json:"session_id"`
	OldName   string `json:"old_name"`
	NewName   string `json:"new_name"`
}

type metadataParams struct {
	Runtime string            `json:"runtime"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// registerHandlers exposes every Host operation as a command.
func registerHandlers(d *protocol.Dispatcher, host mcphost.Host) {
	d.RegisterHandler("start_mcp_server", func(ctx context.Context, req *protocol.CommandRequest) (any, error) {
		var p startServerParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		return host.StartMCPServer(ctx, p.SessionID, p.Runtime, p.Args, p.Env)
	})

	d.RegisterHandler("stop_mcp_server", func(_ context.Context, req *protocol.CommandRequest) (any, error) {
		var p stopServerParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		return nil, host.StopMCPServer(p.SessionID, p.Name)
	})

	d.RegisterHandler("stop_session", func(_ context.Context, req *protocol.CommandRequest) (any, error) {
		var p sessionParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		return nil, host.StopSession(p.SessionID)
	})

	d.RegisterHandler("get_mcp_tools", func(ctx context.Context, req *protocol.CommandRequest) (any, error) {
		var p sessionParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		return host.GetMCPTools(ctx, p.SessionID)
	})

	d.RegisterHandler("call_mcp_tool", func(ctx context.Context, req *protocol.CommandRequest) (any, error) {
		var p callToolParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		return host.CallMCPTool(ctx, p.SessionID, p.Name, p.Arguments)
	})

	d.RegisterHandler("rename_mcp_server", func(_ context.Context, req *protocol.CommandRequest) (any, error) {
		var p renameServerParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		return nil, host.RenameMCPServer(p.SessionID, p.OldName, p.NewName)
	})

	d.RegisterHandler("get_metadata", func(ctx context.Context, req *protocol.CommandRequest) (any, error) {
		var p metadataParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		info, err := host.PeerInfo(ctx, p.Runtime, p.Args, p.Env)
		if err != nil {
			return nil, err
		}

		return json.RawMessage(info), nil
	})

	d.RegisterHandler("list_mcp_servers", func(_ context.Context, req *protocol.CommandRequest) (any, error) {
		var p sessionParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}

		return host.ListMCPServers(p.SessionID)
	})
}
