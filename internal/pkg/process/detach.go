package process

import (
	"fmt"
	"os/exec"
	"syscall"
)

// StartDetached starts cmd in its own session and drops the handle to it.
// Only spawn failures are reported; whatever happens to the child afterwards
// is not observable by the caller.
func StartDetached(cmd *exec.Cmd) (int, error) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true

	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start process: %w", err)
	}

	pid := cmd.Process.Pid

	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release process: %w", err)
	}

	return pid, nil
}
