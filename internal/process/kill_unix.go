//go:build !windows

// Package process stops the browser processes started for measurement.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, which
// takes down Chrome's renderer and GPU helpers with it.
func KillProcessGroup(pid int) {
	// Best-effort: the launcher has already tried a plain kill.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
