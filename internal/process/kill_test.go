package process

// Notes:
// - KillProcessGroup: only a PID that cannot exist is used. Killing a real
//   group is covered by the browser measurer integration test, which closes
//   a launched Chrome.

import (
	"os"
	"testing"
)

func TestKillProcessGroup_UnknownPID(t *testing.T) {
	t.Parallel()

	// PID 0 and negative values would target this process group, so never use them.
	KillProcessGroup(999999999)

	if _, err := os.Getwd(); err != nil {
		t.Fatalf("process should still be running normally: %v", err)
	}
}
