//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setProcGroup places the child in its own process group so the whole
// process tree can be signalled as one unit.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree signals the target's entire process group. With force it sends
// SIGKILL, otherwise SIGTERM. Errors mean the group is already gone.
func killTree(pid int, force bool) error {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	return syscall.Kill(-pid, sig)
}
