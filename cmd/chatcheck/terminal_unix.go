//go:build !windows

package main

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// disableCtrlCEcho turns off ECHOCTL on the controlling terminal, so an interrupt
// does not print "^C" into the middle of the progress output. the returned func restores it.
func disableCtrlCEcho() (restore func()) {
	noop := func() {}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return noop
	}

	state, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return noop
	}
	saved := *state
	state.Lflag &^= unix.ECHOCTL
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, state); err != nil {
		return noop
	}
	return func() { _ = unix.IoctlSetTermios(fd, ioctlWriteTermios, &saved) }
}
