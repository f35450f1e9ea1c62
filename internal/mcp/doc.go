// Package mcp wraps one live MCP tool-provider subprocess and its protocol
// connection.
//
// A Server is created by Connect, which performs the MCP initialize
// handshake over any transport, or by a Launcher, which spawns a bundled
// runtime over stdio first. Every Server owns a lifetime context: Kill
// signals the subprocess and cancels that context, so calls still waiting
// on a response fail with ErrServerKilled instead of hanging.
package mcp
