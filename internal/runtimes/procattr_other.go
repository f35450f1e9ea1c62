//go:build !linux

package runtimes

import "os/exec"

// setParentDeathSignal is a no-op where the kernel offers no parent-death
// signal; the exit sweep covers those platforms.
func setParentDeathSignal(*exec.Cmd) {}
