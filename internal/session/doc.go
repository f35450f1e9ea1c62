// Package session implements the per-conversation registry of live MCP
// servers.
//
// A Registry maps session ids onto sessions. Each session owns its server
// handles, keyed by display name, and a routing table from tool name to the
// name of the server that advertises it. One mutex guards the whole map, so
// every mutating operation is serialized across sessions. Spawning and the
// handshake run before the lock is taken; the tool listing that fills the
// routing table runs under it.
//
// Stop and rename operations never fail: acting on something already gone
// is reported through their boolean result only, so repeated teardown
// requests from the UI stay idempotent.
package session
