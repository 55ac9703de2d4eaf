package runner

import (
	"fmt"
	"strings"
)

// LaunchError reports that the target command could not start at all. It is
// fatal to the session: no artifacts are produced and the caller receives
// the full launch context along with the underlying OS error.
type LaunchError struct {
	Command []string
	Dir     string
	Err     error
}

func (e *LaunchError) Error() string {
	if e.Dir != "" {
		return fmt.Sprintf("failed to launch %q in %q: %v", strings.Join(e.Command, " "), e.Dir, e.Err)
	}
	return fmt.Sprintf("failed to launch %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
