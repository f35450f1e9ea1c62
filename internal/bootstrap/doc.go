// Package bootstrap warms up optional runtimes at startup.
//
// Package runners such as uvx and npx populate their caches on first use,
// which can take long enough to trip a server handshake. Probing them once
// with a harmless argument moves that cost to startup. A runtime that is
// missing or fails its probe is logged and otherwise ignored.
package bootstrap
