// Package base provides common state tracking for all collectors: sample and
// error counters, degradation flags and OTEL self-metrics. Embed it in a
// collector to get the bookkeeping half of the Collector contract for free.
package base

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

const meterName = "github.com/AutoProfilingRUC/autoprofiler/pkg/collectors"

// BaseCollector tracks samples, errors and degradation for one collector.
// All fields are written through atomics so sampling goroutines and the
// runner can touch it concurrently.
type BaseCollector struct {
	name     string
	category domain.ArtifactCategory
	logger   *zap.Logger

	startTime time.Time

	samplesTaken atomic.Int64
	errorCount   atomic.Int64
	lastError    atomic.Value // errBox

	degraded atomic.Bool
	warning  atomic.Value // string

	// Self-metrics. Creation failures are logged and the counters stay nil;
	// collection must keep working without a metrics backend.
	samplesMetric metric.Int64Counter
	errorsMetric  metric.Int64Counter
}

// errBox keeps lastError stores monomorphic; atomic.Value panics when
// consecutive stores carry different concrete types.
type errBox struct {
	err error
}

// New creates base state for a named collector.
func New(name string, category domain.ArtifactCategory, logger *zap.Logger) *BaseCollector {
	if logger == nil {
		logger = zap.NewNop()
	}

	bc := &BaseCollector{
		name:      name,
		category:  category,
		logger:    logger.With(zap.String("collector", name)),
		startTime: time.Now(),
	}

	meter := otel.Meter(meterName)

	var err error
	bc.samplesMetric, err = meter.Int64Counter(
		"autoprofiler_collector_samples_total",
		metric.WithDescription("Total samples taken by a collector"),
	)
	if err != nil {
		bc.logger.Warn("Failed to create samples counter", zap.Error(err))
	}

	bc.errorsMetric, err = meter.Int64Counter(
		"autoprofiler_collector_errors_total",
		metric.WithDescription("Total errors recorded by a collector"),
	)
	if err != nil {
		bc.logger.Warn("Failed to create errors counter", zap.Error(err))
	}

	return bc
}

// Name returns the collector name.
func (bc *BaseCollector) Name() string {
	return bc.name
}

// Category returns the collector's artifact category.
func (bc *BaseCollector) Category() domain.ArtifactCategory {
	return bc.category
}

// Logger returns the collector-scoped logger.
func (bc *BaseCollector) Logger() *zap.Logger {
	return bc.logger
}

// RecordSample notes one successful observation.
func (bc *BaseCollector) RecordSample(ctx context.Context) {
	bc.samplesTaken.Add(1)
	if bc.samplesMetric != nil {
		bc.samplesMetric.Add(ctx, 1, metric.WithAttributes(
			attribute.String("collector", bc.name),
		))
	}
}

// RecordError notes a failed observation. Errors do not degrade the
// collector by themselves; callers decide when a failure is terminal and
// call SetDegraded.
func (bc *BaseCollector) RecordError(ctx context.Context, err error) {
	bc.errorCount.Add(1)
	if err != nil {
		bc.lastError.Store(errBox{err: err})
	}
	if bc.errorsMetric != nil {
		bc.errorsMetric.Add(ctx, 1, metric.WithAttributes(
			attribute.String("collector", bc.name),
		))
	}
}

// SetDegraded marks the collector as unable to do its job, with a
// human-readable reason carried into the emitted artifact. The session
// continues; degradation is isolated to this collector.
func (bc *BaseCollector) SetDegraded(warning string) {
	bc.degraded.Store(true)
	bc.warning.Store(warning)
	bc.logger.Warn("Collector degraded", zap.String("warning", warning))
}

// Degraded reports whether SetDegraded was called.
func (bc *BaseCollector) Degraded() bool {
	return bc.degraded.Load()
}

// Warning returns the degradation reason, if any.
func (bc *BaseCollector) Warning() string {
	if w, ok := bc.warning.Load().(string); ok {
		return w
	}
	return ""
}

// SampleCount returns how many samples were recorded.
func (bc *BaseCollector) SampleCount() int64 {
	return bc.samplesTaken.Load()
}

// ErrorCount returns how many errors were recorded.
func (bc *BaseCollector) ErrorCount() int64 {
	return bc.errorCount.Load()
}

// LastError returns the most recent recorded error, or nil.
func (bc *BaseCollector) LastError() error {
	if box, ok := bc.lastError.Load().(errBox); ok {
		return box.err
	}
	return nil
}

// EmitArtifact assembles the collector's artifact from the given metrics and
// raw files, stamping it with the collector identity, the current time and
// any degradation state. Metrics may be nil for a degraded artifact; the
// emitted map is never nil.
func (bc *BaseCollector) EmitArtifact(metrics map[string]any, rawFiles []string) *domain.ProfileArtifact {
	if metrics == nil {
		metrics = map[string]any{}
	}
	return &domain.ProfileArtifact{
		Collector: bc.name,
		Category:  bc.category,
		Timestamp: time.Now().UTC(),
		Metrics:   metrics,
		RawFiles:  rawFiles,
		Degraded:  bc.Degraded(),
		Warning:   bc.Warning(),
	}
}
