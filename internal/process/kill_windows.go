//go:build windows

// Package process stops the browser processes started for measurement.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills pid and its child tree with taskkill
// (/F force, /T tree).
func KillProcessGroup(pid int) {
	// Best-effort: the launcher has already tried a plain kill.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is an int
}
