package base

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

func TestBaseCollector(t *testing.T) {
	ctx := context.Background()

	t.Run("initialization", func(t *testing.T) {
		bc := New("procstat", domain.CategorySystem, zaptest.NewLogger(t))

		assert.Equal(t, "procstat", bc.Name())
		assert.Equal(t, domain.CategorySystem, bc.Category())
		assert.Equal(t, int64(0), bc.SampleCount())
		assert.Equal(t, int64(0), bc.ErrorCount())
		assert.False(t, bc.Degraded())
		assert.Empty(t, bc.Warning())
	})

	t.Run("record samples", func(t *testing.T) {
		bc := New("procstat", domain.CategorySystem, zaptest.NewLogger(t))

		bc.RecordSample(ctx)
		bc.RecordSample(ctx)
		bc.RecordSample(ctx)

		assert.Equal(t, int64(3), bc.SampleCount())
	})

	t.Run("record errors", func(t *testing.T) {
		bc := New("procstat", domain.CategorySystem, zaptest.NewLogger(t))

		bc.RecordError(ctx, errors.New("read failed"))
		bc.RecordError(ctx, errors.New("read failed again"))

		assert.Equal(t, int64(2), bc.ErrorCount())
		assert.EqualError(t, bc.LastError(), "read failed again")
		assert.False(t, bc.Degraded(), "errors alone must not degrade the collector")
	})

	t.Run("errors of different concrete types", func(t *testing.T) {
		bc := New("procstat", domain.CategorySystem, zaptest.NewLogger(t))

		bc.RecordError(ctx, errors.New("plain"))
		bc.RecordError(ctx, fmt.Errorf("wrapped: %w", errors.New("inner")))
		bc.RecordError(ctx, &os.PathError{Op: "open", Path: "/proc/1/io", Err: errors.New("denied")})

		assert.Equal(t, int64(3), bc.ErrorCount())
		assert.EqualError(t, bc.LastError(), "open /proc/1/io: denied")
	})

	t.Run("degradation", func(t *testing.T) {
		bc := New("pyspy", domain.CategoryCPU, zaptest.NewLogger(t))

		bc.SetDegraded("py-spy not available in PATH")

		assert.True(t, bc.Degraded())
		assert.Equal(t, "py-spy not available in PATH", bc.Warning())
	})

	t.Run("nil logger", func(t *testing.T) {
		bc := New("procstat", domain.CategorySystem, nil)
		require.NotNil(t, bc.Logger())
	})
}

func TestEmitArtifact(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		bc := New("procstat", domain.CategorySystem, zaptest.NewLogger(t))

		artifact := bc.EmitArtifact(
			map[string]any{"sample_count": float64(4)},
			[]string{"/tmp/procstat.json"},
		)

		require.NotNil(t, artifact)
		assert.Equal(t, "procstat", artifact.Collector)
		assert.Equal(t, domain.CategorySystem, artifact.Category)
		assert.False(t, artifact.Timestamp.IsZero())
		assert.Equal(t, float64(4), artifact.Metrics["sample_count"])
		assert.Equal(t, []string{"/tmp/procstat.json"}, artifact.RawFiles)
		assert.False(t, artifact.Degraded)
	})

	t.Run("degraded with nil metrics", func(t *testing.T) {
		bc := New("pyspy", domain.CategoryCPU, zaptest.NewLogger(t))
		bc.SetDegraded("py-spy not available in PATH")

		artifact := bc.EmitArtifact(nil, nil)

		require.NotNil(t, artifact)
		assert.True(t, artifact.Degraded)
		assert.Equal(t, "py-spy not available in PATH", artifact.Warning)
		assert.NotNil(t, artifact.Metrics)
		assert.Empty(t, artifact.Metrics)
	})
}
