package reporting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

func sampleSession() *domain.Session {
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return &domain.Session{
		ID: "11111111-2222-4333-8444-555555555555",
		Target: domain.TargetProgram{
			Command: []string{"python3", "train.py"},
			Timeout: 30 * time.Second,
		},
		Process: domain.ProcessRecord{
			PID:        7001,
			ExitStatus: domain.ExitStatusOK,
			StartedAt:  started,
			FinishedAt: started.Add(4200 * time.Millisecond),
		},
		Artifacts: []domain.ProfileArtifact{
			{
				Collector: "cprofile",
				Category:  domain.CategoryCPU,
				Timestamp: started.Add(4 * time.Second),
				Metrics: map[string]any{
					"total_calls":   float64(1_200_000),
					"avg_time_us":   1.2,
					"top_functions": []any{map[string]any{"function": "train.py:10:step"}},
				},
				RawFiles: []string{"/tmp/cprofile_20250314T092653.pstats"},
			},
			{
				Collector: "pyspy",
				Category:  domain.CategoryCPU,
				Timestamp: started.Add(4 * time.Second),
				Metrics:   map[string]any{},
				Degraded:  true,
				Warning:   "py-spy not available in PATH",
			},
		},
		Findings: []domain.Finding{
			{
				ID:          "finding_0_excessive_function_calls",
				PatternID:   "excessive_function_calls",
				Evidence:    map[string]float64{"total_calls": 1_200_000, "avg_time_us": 1.2},
				Confidence:  0.87,
				Summary:     "Very high call count with cheap per-call time suggests a hot loop",
				Suggestions: []string{"Batch work to reduce per-call overhead"},
			},
		},
		Environment: domain.Environment{OS: "linux", Arch: "amd64", Runtime: "go1.24.0", NumCPU: 8, CapturedAt: started},
		StartedAt:   started,
		FinishedAt:  started.Add(4200 * time.Millisecond),
	}
}

func TestRenderMarkdown(t *testing.T) {
	report := RenderMarkdown(sampleSession())

	assert.Contains(t, report, "# AutoProfiler Report for `python3 train.py`")
	assert.Contains(t, report, "## Execution Summary")
	assert.Contains(t, report, "- Exit Status: ok")
	assert.Contains(t, report, "- Duration (s): 4.200")
	assert.Contains(t, report, "## Artifacts")
	assert.Contains(t, report, "cprofile (cpu)")
	assert.Contains(t, report, "top_functions=[1 entries]")
	assert.Contains(t, report, "pyspy (cpu): degraded: py-spy not available in PATH")
	assert.Contains(t, report, "## Findings")
	assert.Contains(t, report, "**excessive_function_calls** (confidence 0.87)")
	assert.Contains(t, report, "Evidence: avg_time_us=1.2, total_calls=1.2e+06")
	assert.Contains(t, report, "Suggestion: Batch work to reduce per-call overhead")
	assert.Contains(t, report, "## Verification Steps")
}

func TestRenderMarkdownEmptySections(t *testing.T) {
	session := sampleSession()
	session.Artifacts = nil
	session.Findings = nil

	report := RenderMarkdown(session)
	assert.Contains(t, report, "No artifacts were produced")
	assert.Contains(t, report, "No patterns matched")
}

func TestRenderMarkdownIsDeterministic(t *testing.T) {
	session := sampleSession()
	first := RenderMarkdown(session)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, RenderMarkdown(session))
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	session := sampleSession()

	raw, err := RenderJSON(session)
	require.NoError(t, err)

	var decoded domain.Session
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, *session, decoded)
}
