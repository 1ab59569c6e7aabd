//go:build windows

package main

// disableCtrlCEcho does nothing on windows, the console has no ECHOCTL.
func disableCtrlCEcho() (restore func()) {
	return func() {}
}
