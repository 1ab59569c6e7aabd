//go:build !windows

package notify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupProcessGroup(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "child.pid")
	ctx, cancel := context.WithCancel(context.Background())

	// the script starts a background child and records its pid
	cmd := exec.CommandContext(ctx, "sh", "-c", "sleep 30 & echo $! > "+pidFile+"; wait")
	setupProcessGroup(cmd)
	require.NoError(t, cmd.Start())

	var childPid int
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(pidFile) //nolint:gosec // test path
		if err != nil {
			return false
		}
		childPid, err = strconv.Atoi(strings.TrimSpace(string(data)))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.Error(t, cmd.Wait())

	assert.Eventually(t, func() bool { return !alive(childPid) }, 5*time.Second, 20*time.Millisecond,
		"child of the script survived")
}

// alive reports whether pid runs. zombies waiting for their reaper count as dead.
func alive(pid int) bool {
	if syscall.Kill(pid, 0) != nil {
		return false
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	fields := strings.Fields(string(data))
	return len(fields) < 3 || fields[2] != "Z"
}

func TestKillProcessGroup_Gone(t *testing.T) {
	cmd := exec.Command("true")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	require.NoError(t, cmd.Run())
	assert.ErrorIs(t, killProcessGroup(cmd.Process.Pid), os.ErrProcessDone)
}
