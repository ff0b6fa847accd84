//go:build windows

package executor

import (
	"os/exec"
	"strconv"
	"syscall"
)

// shellCommand wraps a command line for the host's default interpreter.
func shellCommand(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

// setProcessGroup creates a new process group so the tree can be targeted.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// killProcessGroup force-kills the process tree rooted at pid. taskkill is
// more reliable than enumerating child processes by hand.
func killProcessGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
