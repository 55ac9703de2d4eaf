// Package collectors defines the capability contract shared by all
// profiling collectors and the options used to construct them.
package collectors

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

// Collector is the fixed capability interface every collector implements.
// Collectors observe a target process from the outside: they never inject
// code into it and never write into its working state beyond their own
// artifact files. Collectors do not see each other; the runner coordinates
// them around the target's lifecycle.
type Collector interface {
	// Name returns the unique identifier for this collector.
	Name() string

	// Category returns the resource dimension this collector reports on.
	Category() domain.ArtifactCategory

	// PrepareCommand may rewrite the launch command before the target
	// starts, e.g. to route execution through an external profiler.
	// Attach-only collectors return the command unchanged. The runner calls
	// this exactly once per collector, in registration order, before launch.
	PrepareCommand(command []string) []string

	// Start attaches the collector to the launched target. It is called
	// only after the PID is known and must return quickly; sampling runs in
	// the background. A Start error degrades this collector only; the
	// runner logs it and the session continues.
	Start(ctx context.Context, pid int) error

	// Stop halts collection and produces the collector's artifact. It is
	// called after the target has been confirmed terminated. Stop always
	// returns an artifact: on failure or missing dependencies the artifact
	// is marked degraded with a warning rather than omitted. Partial data
	// gathered before a kill is valid, not an error.
	Stop(ctx context.Context) *domain.ProfileArtifact
}

// Options carries the construction knobs shared by the built-in collectors.
// Unset fields fall back to per-collector defaults.
type Options struct {
	// OutputDir is where collectors persist their raw files. Defaults to
	// the current working directory.
	OutputDir string

	// SampleInterval is the polling period for periodic collectors.
	SampleInterval time.Duration

	// SampleDuration bounds external sampling profilers such as py-spy.
	SampleDuration time.Duration

	// Python is the interpreter used by the cprofile collector.
	Python string

	// TopN limits how many hot functions the cprofile collector reports.
	TopN int

	// Logger is the structured logger collectors report through. A nil
	// logger is replaced with zap.NewNop().
	Logger *zap.Logger
}

// Normalize fills unset options with defaults.
func (o Options) Normalize() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.SampleInterval <= 0 {
		o.SampleInterval = 500 * time.Millisecond
	}
	if o.SampleDuration <= 0 {
		o.SampleDuration = 5 * time.Second
	}
	if o.Python == "" {
		o.Python = "python3"
	}
	if o.TopN <= 0 {
		o.TopN = 10
	}
	return o
}
