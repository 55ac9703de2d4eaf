// Package procstat implements the periodic system-metrics collector. It
// polls CPU, resident memory, I/O counters and thread count for the target
// PID at a fixed interval, keeps the raw time series, and summarizes it into
// peak/mean/final statistics when stopped.
package procstat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/base"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/registry"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

func init() {
	registry.Register("procstat", func(opts collectors.Options) collectors.Collector {
		return New(opts.Logger, WithInterval(opts.SampleInterval), WithOutputDir(opts.OutputDir))
	})
}

// Sample is one observation of the target process.
type Sample struct {
	At         time.Time `json:"at"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   float64   `json:"rss_bytes"`
	NumThreads float64   `json:"num_threads"`
	ReadBytes  float64   `json:"read_bytes"`
	WriteBytes float64   `json:"write_bytes"`
}

// Collector samples /proc for the target PID until stopped.
type Collector struct {
	*base.BaseCollector

	interval  time.Duration
	outputDir string

	mu      sync.Mutex
	samples []Sample

	pid      int
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	prevTicks float64
	prevAt    time.Time
}

// Option customizes the collector.
type Option func(*Collector)

// WithInterval sets the polling period.
func WithInterval(interval time.Duration) Option {
	return func(c *Collector) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithOutputDir sets where the raw time series file is written.
func WithOutputDir(dir string) Option {
	return func(c *Collector) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// New creates a procstat collector.
func New(logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		BaseCollector: base.New("procstat", domain.CategorySystem, logger),
		interval:      500 * time.Millisecond,
		outputDir:     ".",
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PrepareCommand is the identity: procstat only attaches.
func (c *Collector) PrepareCommand(command []string) []string {
	return command
}

// Start begins sampling the PID in the background. If the platform has no
// /proc support the collector degrades and Start still succeeds.
func (c *Collector) Start(ctx context.Context, pid int) error {
	c.pid = pid

	snap, err := readProcSample(pid)
	if err != nil {
		c.SetDegraded(fmt.Sprintf("cannot sample pid %d: %v", pid, err))
		close(c.doneCh)
		return nil
	}
	c.prevTicks = snap.cpuTicks
	c.prevAt = time.Now()
	c.record(ctx, snap, 0)

	go c.loop(ctx)
	return nil
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := readProcSample(c.pid)
			if err != nil {
				// The target usually exited between ticks; keep what we have.
				c.Logger().Debug("Sample failed", zap.Int("pid", c.pid), zap.Error(err))
				c.RecordError(ctx, err)
				return
			}

			now := time.Now()
			elapsed := now.Sub(c.prevAt).Seconds()
			cpuPercent := 0.0
			if elapsed > 0 {
				cpuPercent = (snap.cpuTicks - c.prevTicks) / userHz / elapsed * 100
			}
			c.prevTicks = snap.cpuTicks
			c.prevAt = now

			c.record(ctx, snap, cpuPercent)
		}
	}
}

func (c *Collector) record(ctx context.Context, snap procSample, cpuPercent float64) {
	c.mu.Lock()
	c.samples = append(c.samples, Sample{
		At:         time.Now().UTC(),
		CPUPercent: cpuPercent,
		RSSBytes:   snap.rssBytes,
		NumThreads: snap.numThreads,
		ReadBytes:  snap.readBytes,
		WriteBytes: snap.writeBytes,
	})
	c.mu.Unlock()
	c.RecordSample(ctx)
}

// Stop halts sampling, persists the raw time series and returns the summary
// artifact. Samples gathered before a kill are valid partial data.
func (c *Collector) Stop(ctx context.Context) *domain.ProfileArtifact {
	c.stopOnce.Do(func() { close(c.stopCh) })

	select {
	case <-c.doneCh:
	case <-time.After(2 * c.interval):
		c.Logger().Warn("Sampling loop did not stop in time")
	}

	c.mu.Lock()
	samples := make([]Sample, len(c.samples))
	copy(samples, c.samples)
	c.mu.Unlock()

	var rawFiles []string
	if len(samples) > 0 {
		if path, err := c.persistSeries(samples); err != nil {
			c.Logger().Warn("Failed to persist raw samples", zap.Error(err))
			c.RecordError(ctx, err)
		} else {
			rawFiles = append(rawFiles, path)
		}
	}

	return c.EmitArtifact(summarize(samples), rawFiles)
}

func (c *Collector) persistSeries(samples []Sample) (string, error) {
	payload, err := json.Marshal(samples)
	if err != nil {
		return "", fmt.Errorf("encode samples: %w", err)
	}

	name := fmt.Sprintf("procstat_%s.json", time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(c.outputDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write samples: %w", err)
	}
	return path, nil
}

// summarize aggregates the time series into peak, mean and final values.
func summarize(samples []Sample) map[string]any {
	metrics := map[string]any{
		"sample_count": float64(len(samples)),
	}
	if len(samples) == 0 {
		return metrics
	}

	var cpuSum, cpuMax, rssSum, rssMax, threadsMax float64
	for _, s := range samples {
		cpuSum += s.CPUPercent
		rssSum += s.RSSBytes
		cpuMax = max(cpuMax, s.CPUPercent)
		rssMax = max(rssMax, s.RSSBytes)
		threadsMax = max(threadsMax, s.NumThreads)
	}

	final := samples[len(samples)-1]
	n := float64(len(samples))

	metrics["cpu_percent_avg"] = cpuSum / n
	metrics["cpu_percent_max"] = cpuMax
	metrics["rss_bytes_avg"] = rssSum / n
	metrics["rss_bytes_max"] = rssMax
	metrics["rss_bytes_final"] = final.RSSBytes
	metrics["num_threads_max"] = threadsMax
	metrics["io_read_bytes"] = final.ReadBytes
	metrics["io_write_bytes"] = final.WriteBytes
	return metrics
}
