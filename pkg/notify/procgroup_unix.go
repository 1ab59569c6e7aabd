//go:build !windows

package notify

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	sigkillDelay = 100 * time.Millisecond // between SIGTERM and SIGKILL of the script's group
	waitDelay    = time.Second            // how long Wait may block on pipes after cancellation
)

// setupProcessGroup runs cmd in its own process group. canceling the command's
// context terminates the whole group, so children the script started die with it.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return killProcessGroup(cmd.Process.Pid) }
	cmd.WaitDelay = waitDelay
}

// killProcessGroup sends SIGTERM to the group led by pid and SIGKILL shortly after.
func killProcessGroup(pid int) error {
	pgid := -pid
	if err := unix.Kill(pgid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return fmt.Errorf("terminate process group %d: %w", pid, err)
	}
	time.AfterFunc(sigkillDelay, func() { _ = unix.Kill(pgid, unix.SIGKILL) })
	return nil
}
