// Package errors defines error types for the MCP session host.
//
// Every failure the host surfaces to a caller maps onto one of the typed
// errors in this package. All error types support unwrapping and can be
// checked using errors.Is, errors.As, and errors.AsType.
package errors
