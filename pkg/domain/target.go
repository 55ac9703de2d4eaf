package domain

import (
	"errors"
	"time"
)

// TargetProgram describes a program to be profiled. The program is treated
// as an opaque executable command; no assumptions are made about the
// underlying code or frameworks. Fields are fixed at construction and fully
// determine what the runner executes.
type TargetProgram struct {
	// Command is the executable and its arguments, in order. Must be non-empty.
	Command []string `json:"command"`

	// Dir is the working directory for the target. Empty means inherit.
	Dir string `json:"dir,omitempty"`

	// Env holds environment overrides applied on top of the host environment.
	Env map[string]string `json:"env,omitempty"`

	// Timeout bounds target execution. Zero means no limit.
	Timeout time.Duration `json:"timeout,omitempty"`
}

var (
	ErrEmptyCommand    = errors.New("target command must not be empty")
	ErrNegativeTimeout = errors.New("target timeout must be positive")
)

// Validate checks the structural invariants of the target description.
func (t TargetProgram) Validate() error {
	if len(t.Command) == 0 || t.Command[0] == "" {
		return ErrEmptyCommand
	}
	if t.Timeout < 0 {
		return ErrNegativeTimeout
	}
	return nil
}
