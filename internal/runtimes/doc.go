// Package runtimes resolves the logical runtime names accepted by the host
// into ready-to-spawn commands.
//
// Only a fixed set of launchers is supported: python, uvx, node, npx and
// bunx. Each name maps to an executable inside the bundled resource
// directory:
//
//	resolver := runtimes.NewResolver(&runtimes.Config{
//	    ResourceDir: "/opt/tome/resources",
//	    Logger:      slog.Default(),
//	})
//	cmd, err := resolver.Command("uvx", []string{"mcp-server-fetch"}, nil)
//
// When no resource directory is configured the executable is looked up on
// PATH instead. Any other name fails with UnsupportedRuntimeError.
//
// Commands built here carry a parent-death signal on Linux so a server never
// outlives the host process that spawned it.
package runtimes
