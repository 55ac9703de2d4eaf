//go:build windows

package runner

import (
	"os/exec"
	"strconv"
)

func setProcGroup(cmd *exec.Cmd) {}

// killTree terminates the process tree via taskkill; Windows has no process
// groups that map onto the unix signalling model, and taskkill /T walks the
// child tree for us.
func killTree(pid int, force bool) error {
	args := []string{"/T", "/PID", strconv.Itoa(pid)}
	if force {
		args = append(args, "/F")
	}
	return exec.Command("taskkill", args...).Run()
}
