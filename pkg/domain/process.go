package domain

import "time"

// ExitStatus classifies how the target process finished.
type ExitStatus string

const (
	// ExitStatusOK means the target exited with code zero.
	ExitStatusOK ExitStatus = "ok"

	// ExitStatusError means the target exited on its own with a non-zero code.
	ExitStatusError ExitStatus = "error"

	// ExitStatusTimeout means the runner killed the target after its
	// timeout (or an external cancellation) expired.
	ExitStatusTimeout ExitStatus = "killed-by-timeout"

	// ExitStatusLaunchFailed means the command never started.
	ExitStatusLaunchFailed ExitStatus = "launch-failed"
)

// ProcessRecord captures execution metadata for one target run. It is
// written exactly once by the runner and read-only afterward. Output is
// stored as raw bytes, never parsed for semantic content; each stream is
// bounded by the runner's output cap and flagged when truncated.
type ProcessRecord struct {
	PID             int        `json:"pid"`
	ExitCode        int        `json:"exit_code"`
	ExitStatus      ExitStatus `json:"exit_status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
	Stdout          []byte     `json:"stdout,omitempty"`
	Stderr          []byte     `json:"stderr,omitempty"`
	StdoutTruncated bool       `json:"stdout_truncated,omitempty"`
	StderrTruncated bool       `json:"stderr_truncated,omitempty"`
}

// Duration returns the wall-clock time the target ran.
func (p ProcessRecord) Duration() time.Duration {
	return p.FinishedAt.Sub(p.StartedAt)
}
