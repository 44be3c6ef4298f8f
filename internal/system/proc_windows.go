//go:build windows

package system

import (
	"os/exec"
)

func killProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
}

func detach(cmd *exec.Cmd) {}
