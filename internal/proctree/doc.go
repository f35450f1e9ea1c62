// Package proctree kills a process together with everything it spawned.
//
// The terminator reads the OS process table once, builds a pid to children
// index from that snapshot and walks it without querying the OS again.
// Descendants are killed first and the root last. Processes started after
// the snapshot are not seen by that pass.
package proctree
