//go:build !windows

package system

import (
	"os/exec"
	"syscall"
)

// killProcessGroup places the child in its own process group and makes
// context cancellation SIGKILL the whole group, not just the direct child.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
