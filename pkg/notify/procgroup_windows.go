//go:build windows

package notify

import (
	"os/exec"
	"time"
)

// setupProcessGroup only bounds Wait on windows, canceling kills the script itself.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = time.Second
}
