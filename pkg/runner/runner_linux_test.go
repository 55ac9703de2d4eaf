//go:build linux

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors/procstat"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

// A target that outlives its timeout is killed, and the system-metrics
// collector still delivers the samples it captured before the kill.
func TestTimeoutStillYieldsSystemMetrics(t *testing.T) {
	r := New(zaptest.NewLogger(t), WithGracePeriod(2*time.Second))

	sampler := procstat.New(zaptest.NewLogger(t),
		procstat.WithInterval(100*time.Millisecond),
		procstat.WithOutputDir(t.TempDir()),
	)

	session, err := r.Run(context.Background(), domain.TargetProgram{
		Command: []string{"sleep", "10"},
		Timeout: time.Second,
	}, []collectors.Collector{sampler})
	require.NoError(t, err)

	assert.Equal(t, domain.ExitStatusTimeout, session.Process.ExitStatus)

	require.Len(t, session.Artifacts, 1)
	artifact := session.Artifacts[0]
	assert.Equal(t, "procstat", artifact.Collector)
	assert.False(t, artifact.Degraded)

	count, ok := artifact.Metrics["sample_count"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, count, float64(1),
		"at least one sample must land before the kill")
}
