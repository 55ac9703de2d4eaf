package domain

import (
	"os"
	"runtime"
	"time"
)

// Environment is a snapshot of the host at session start. It describes the
// machine that ran the profiler, not the target program.
type Environment struct {
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
	Hostname   string    `json:"hostname,omitempty"`
	Runtime    string    `json:"runtime"`
	NumCPU     int       `json:"num_cpu"`
	CapturedAt time.Time `json:"captured_at"`
}

// CaptureEnvironment snapshots the current host.
func CaptureEnvironment() Environment {
	hostname, _ := os.Hostname()
	return Environment{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Hostname:   hostname,
		Runtime:    runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		CapturedAt: time.Now().UTC(),
	}
}

// Session aggregates one profiling run: the target description, the process
// record, every artifact the collectors produced (in registration order) and
// the findings the analyzer derived from them. The session is a pure
// aggregate: it performs no I/O or computation itself. The runner builds it,
// the analyzer completes it via AttachFindings, and afterwards it is
// read-only and serializable.
type Session struct {
	ID          string            `json:"session_id"`
	Target      TargetProgram     `json:"target"`
	Process     ProcessRecord     `json:"process"`
	Artifacts   []ProfileArtifact `json:"artifacts"`
	Findings    []Finding         `json:"findings"`
	Environment Environment       `json:"environment"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// AttachFindings completes the session with analyzer output. It replaces
// any previously attached findings.
func (s *Session) AttachFindings(findings []Finding) {
	s.Findings = findings
}
