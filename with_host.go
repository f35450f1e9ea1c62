package mcphost

import (
	"context"
)

// WithHost manages host lifecycle with automatic cleanup.
//
// This helper creates a host, executes the callback function, and ensures
// every spawned server is swept via Close() when done.
//
// Example usage:
//
//	err := mcphost.WithHost(ctx, func(h mcphost.Host) error {
//	    if _, err := h.StartMCPServer(ctx, 1, "npx", []string{"-y", "@modelcontextprotocol/server-everything"}, nil); err != nil {
//	        return err
//	    }
//	    tools, err := h.GetMCPTools(ctx, 1)
//	    if err != nil {
//	        return err
//	    }
//	    // use tools...
//	    return nil
//	},
//	    mcphost.WithLogger(log),
//	)
func WithHost(ctx context.Context, fn func(Host) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	host := NewHost(opts...)

	defer func() {
		_ = host.Close()
	}()

	return fn(host)
}
