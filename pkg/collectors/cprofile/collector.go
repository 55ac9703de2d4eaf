// Package cprofile implements the command-wrapping collector. It reroutes
// the launch command through `python -m cProfile` so call-level statistics
// are gathered without knowing anything about the target program, and keeps
// the raw .pstats file so results can be re-analyzed later.
//
// The .pstats format is private to cProfile, so on stop the collector asks
// the same interpreter to dump its own file as JSON and parses only that;
// the collector reads its tool's output, never the target's.
package cprofile

import (
	"context"
	"encoding/json"
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
	registry.Register("cprofile", func(opts collectors.Options) collectors.Collector {
		return New(opts.Logger,
			WithPython(opts.Python),
			WithOutputDir(opts.OutputDir),
			WithTopN(opts.TopN),
		)
	})
}

// dumpScript converts a .pstats file (argv[1]) into JSON on stdout,
// limited to the argv[2] functions with the highest cumulative time.
const dumpScript = `
import json, sys, pstats
s = pstats.Stats(sys.argv[1])
n = int(sys.argv[2])
entries = sorted(s.stats.items(), key=lambda e: e[1][3], reverse=True)
top = [
    {
        "function": "%s:%d:%s" % key,
        "call_count": float(value[1]),
        "cumulative_time": float(value[3]),
    }
    for key, value in entries[:n]
]
print(json.dumps({
    "total_calls": float(s.total_calls),
    "total_time": float(s.total_tt),
    "top_functions": top,
}))
`

type statsDump struct {
	TotalCalls   float64 `json:"total_calls"`
	TotalTime    float64 `json:"total_time"`
	TopFunctions []struct {
		Function       string  `json:"function"`
		CallCount      float64 `json:"call_count"`
		CumulativeTime float64 `json:"cumulative_time"`
	} `json:"top_functions"`
}

// Collector wraps the target command with cProfile.
type Collector struct {
	*base.BaseCollector

	python    string
	outputDir string
	topN      int

	outputFile string
}

// Option customizes the collector.
type Option func(*Collector)

// WithPython sets the interpreter used to wrap the command and read stats.
func WithPython(python string) Option {
	return func(c *Collector) {
		if python != "" {
			c.python = python
		}
	}
}

// WithOutputDir sets where the .pstats file is written.
func WithOutputDir(dir string) Option {
	return func(c *Collector) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// WithTopN limits how many hot functions are reported.
func WithTopN(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.topN = n
		}
	}
}

// New creates a cprofile collector.
func New(logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		BaseCollector: base.New("cprofile", domain.CategoryCPU, logger),
		python:        "python3",
		outputDir:     ".",
		topN:          10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PrepareCommand prefixes the target command with `python -m cProfile -o
// <file>`. The output path derives from the current UTC timestamp so
// artifacts are easy to locate and do not collide.
func (c *Collector) PrepareCommand(command []string) []string {
	name := fmt.Sprintf("cprofile_%s.pstats", time.Now().UTC().Format("20060102T150405"))
	c.outputFile = filepath.Join(c.outputDir, name)

	wrapped := []string{c.python, "-m", "cProfile", "-o", c.outputFile}
	return append(wrapped, command...)
}

// Start records attach time; the wrapping already happened in
// PrepareCommand, so there is nothing to do with the PID.
func (c *Collector) Start(ctx context.Context, pid int) error {
	return nil
}

// Stop reads the .pstats file cProfile wrote and emits call-count/time
// metrics. A missing interpreter or output file degrades the artifact.
func (c *Collector) Stop(ctx context.Context) *domain.ProfileArtifact {
	if c.outputFile == "" {
		c.SetDegraded("command was never wrapped with cProfile")
		return c.EmitArtifact(nil, nil)
	}
	if _, err := os.Stat(c.outputFile); err != nil {
		c.SetDegraded("cProfile produced no output; the target may have failed before profiling began")
		return c.EmitArtifact(nil, nil)
	}

	dump, err := c.readStats(ctx)
	if err != nil {
		c.RecordError(ctx, err)
		c.SetDegraded(fmt.Sprintf("failed to read cProfile stats: %v", err))
		return c.EmitArtifact(nil, []string{c.outputFile})
	}
	c.RecordSample(ctx)

	metrics := map[string]any{
		"total_calls": dump.TotalCalls,
		"total_time":  dump.TotalTime,
	}
	if dump.TotalCalls > 0 {
		metrics["avg_time_us"] = dump.TotalTime / dump.TotalCalls * 1e6
	}

	top := make([]any, 0, len(dump.TopFunctions))
	for _, fn := range dump.TopFunctions {
		top = append(top, map[string]any{
			"function":        fn.Function,
			"call_count":      fn.CallCount,
			"cumulative_time": fn.CumulativeTime,
		})
	}
	metrics["top_functions"] = top

	return c.EmitArtifact(metrics, []string{c.outputFile})
}

func (c *Collector) readStats(ctx context.Context) (*statsDump, error) {
	cmd := exec.CommandContext(ctx, c.python, "-c", dumpScript, c.outputFile, strconv.Itoa(c.topN))
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("dump pstats: %w", err)
	}

	var dump statsDump
	if err := json.Unmarshal(out, &dump); err != nil {
		return nil, fmt.Errorf("decode pstats dump: %w", err)
	}

	c.Logger().Debug("Parsed cProfile stats",
		zap.Float64("total_calls", dump.TotalCalls),
		zap.Float64("total_time", dump.TotalTime),
	)
	return &dump, nil
}
