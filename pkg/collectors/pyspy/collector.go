// Package pyspy integrates the external py-spy sampling profiler. The
// collector never touches the target process itself; it launches
// `py-spy record` against the target PID and collects the file py-spy
// writes. A missing py-spy binary degrades this collector only; the
// session continues with whatever the other collectors produce.
package pyspy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/base"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/registry"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

func init() {
	registry.Register("pyspy", func(opts collectors.Options) collectors.Collector {
		return New(opts.Logger,
			WithDuration(opts.SampleDuration),
			WithOutputDir(opts.OutputDir),
		)
	})
}

// Collector drives one `py-spy record` invocation.
type Collector struct {
	*base.BaseCollector

	duration   time.Duration
	outputDir  string
	flamegraph bool

	cmd        *exec.Cmd
	stderr     bytes.Buffer
	outputFile string
}

// Option customizes the collector.
type Option func(*Collector)

// WithDuration sets how long py-spy samples the target.
func WithDuration(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.duration = d
		}
	}
}

// WithOutputDir sets where the py-spy output file is written.
func WithOutputDir(dir string) Option {
	return func(c *Collector) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// WithRawFormat switches output from a flamegraph SVG to raw samples.
func WithRawFormat() Option {
	return func(c *Collector) {
		c.flamegraph = false
	}
}

// New creates a py-spy collector.
func New(logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		BaseCollector: base.New("pyspy", domain.CategoryCPU, logger),
		duration:      5 * time.Second,
		outputDir:     ".",
		flamegraph:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PrepareCommand is the identity: py-spy attaches by PID.
func (c *Collector) PrepareCommand(command []string) []string {
	return command
}

// Start launches the py-spy subprocess against the target PID. A missing
// binary or spawn failure degrades the collector; Start still succeeds so
// the runner and the remaining collectors are unaffected.
func (c *Collector) Start(ctx context.Context, pid int) error {
	path, err := exec.LookPath("py-spy")
	if err != nil {
		c.SetDegraded("py-spy not available in PATH")
		return nil
	}

	suffix := "svg"
	if !c.flamegraph {
		suffix = "raw"
	}
	c.outputFile = filepath.Join(c.outputDir,
		fmt.Sprintf("pyspy_%s.%s", time.Now().UTC().Format("20060102T150405"), suffix))

	args := []string{
		"record",
		"-p", strconv.Itoa(pid),
		"--duration", strconv.Itoa(int(c.duration.Seconds())),
		"-o", c.outputFile,
	}
	if !c.flamegraph {
		args = append(args, "--format", "raw")
	}

	c.cmd = exec.Command(path, args...)
	c.cmd.Stderr = &c.stderr

	if err := c.cmd.Start(); err != nil {
		c.RecordError(ctx, err)
		c.SetDegraded(fmt.Sprintf("failed to launch py-spy: %v", err))
		c.cmd = nil
		return nil
	}

	c.Logger().Debug("py-spy started",
		zap.Int("target_pid", pid),
		zap.String("output", c.outputFile),
	)
	c.RecordSample(ctx)
	return nil
}

// Stop waits for py-spy to finish and emits the artifact. py-spy exits on
// its own once its duration elapses or the target dies, so the wait is
// bounded by the sampling duration.
func (c *Collector) Stop(ctx context.Context) *domain.ProfileArtifact {
	if c.Degraded() {
		return c.EmitArtifact(nil, nil)
	}

	metrics := map[string]any{
		"duration_sec": c.duration.Seconds(),
		"status":       "captured",
	}

	if c.cmd != nil {
		if err := c.cmd.Wait(); err != nil {
			// py-spy exits non-zero when the target died mid-recording;
			// partial output is still valid.
			c.RecordError(ctx, err)
			c.Logger().Debug("py-spy exited with error",
				zap.Error(err),
				zap.String("stderr", c.stderr.String()),
			)
		}
	}
	if s := c.stderr.String(); s != "" {
		metrics["stderr"] = s
	}

	var rawFiles []string
	if c.outputFile != "" {
		if _, err := os.Stat(c.outputFile); err == nil {
			rawFiles = append(rawFiles, c.outputFile)
		} else {
			metrics["status"] = "no_output"
		}
	} else {
		metrics["status"] = "not_started"
	}

	return c.EmitArtifact(metrics, rawFiles)
}
