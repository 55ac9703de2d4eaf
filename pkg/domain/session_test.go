package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	session := Session{
		ID: "b7f9d2a4-0000-4000-8000-000000000001",
		Target: TargetProgram{
			Command: []string{"python3", "script.py", "--fast"},
			Dir:     "/tmp/work",
			Env:     map[string]string{"PYTHONUNBUFFERED": "1"},
			Timeout: 10 * time.Second,
		},
		Process: ProcessRecord{
			PID:        4242,
			ExitCode:   0,
			ExitStatus: ExitStatusOK,
			StartedAt:  started,
			FinishedAt: started.Add(3 * time.Second),
			Stdout:     []byte("hello\n"),
		},
		Artifacts: []ProfileArtifact{
			{
				Collector: "procstat",
				Category:  CategorySystem,
				Timestamp: started.Add(3 * time.Second),
				Metrics: map[string]any{
					"sample_count":    float64(12),
					"cpu_percent_max": 97.5,
				},
				RawFiles: []string{"/tmp/work/procstat_20250314T092653.json"},
			},
			{
				Collector: "pyspy",
				Category:  CategoryCPU,
				Timestamp: started.Add(3 * time.Second),
				Metrics:   map[string]any{},
				Degraded:  true,
				Warning:   "py-spy not available in PATH",
			},
		},
		Findings: []Finding{
			{
				ID:          "finding_0_cpu_bound",
				PatternID:   "cpu_bound",
				Evidence:    map[string]float64{"cpu_percent_max": 97.5},
				Confidence:  0.74,
				Summary:     "The target saturates a CPU core",
				Suggestions: []string{"profile hot functions with the cprofile collector"},
			},
		},
		Environment: Environment{
			OS:         "linux",
			Arch:       "amd64",
			Hostname:   "bench-01",
			Runtime:    "go1.24.0",
			NumCPU:     8,
			CapturedAt: started,
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}

	raw, err := json.Marshal(session)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, session, decoded)
}

func TestTargetProgramValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  TargetProgram
		wantErr error
	}{
		{
			name:   "valid",
			target: TargetProgram{Command: []string{"sleep", "1"}},
		},
		{
			name:    "empty command",
			target:  TargetProgram{},
			wantErr: ErrEmptyCommand,
		},
		{
			name:    "blank executable",
			target:  TargetProgram{Command: []string{""}},
			wantErr: ErrEmptyCommand,
		},
		{
			name:    "negative timeout",
			target:  TargetProgram{Command: []string{"true"}, Timeout: -time.Second},
			wantErr: ErrNegativeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessRecordDuration(t *testing.T) {
	start := time.Now().UTC()
	record := ProcessRecord{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
	assert.Equal(t, 1500*time.Millisecond, record.Duration())
}
