package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		raw  string
		want Condition
	}{
		{"> 1000000", Condition{Op: OpGT, Threshold: 1e6}},
		{">=0.5", Condition{Op: OpGTE, Threshold: 0.5}},
		{"< 2", Condition{Op: OpLT, Threshold: 2}},
		{"<= -1.5", Condition{Op: OpLTE, Threshold: -1.5}},
		{"== 0", Condition{Op: OpEQ, Threshold: 0}},
		{"42", Condition{Op: OpEQ, Threshold: 42}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCondition(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConditionErrors(t *testing.T) {
	for _, raw := range []string{"", "   ", "~ 5", "> abc", ">=", "fast"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseCondition(raw)
			assert.Error(t, err)
		})
	}
}

func TestConditionMatches(t *testing.T) {
	assert.True(t, Condition{Op: OpGT, Threshold: 10}.Matches(11))
	assert.False(t, Condition{Op: OpGT, Threshold: 10}.Matches(10))
	assert.True(t, Condition{Op: OpGTE, Threshold: 10}.Matches(10))
	assert.True(t, Condition{Op: OpLT, Threshold: 2}.Matches(1.2))
	assert.True(t, Condition{Op: OpLTE, Threshold: 2}.Matches(2))
	assert.True(t, Condition{Op: OpEQ, Threshold: 7}.Matches(7))
	assert.False(t, Condition{Op: Operator("!="), Threshold: 7}.Matches(7))
}

const samplePatterns = `
- id: excessive_function_calls
  meaning: Very high call count with cheap per-call time suggests a hot loop
  category: cpu
  condition:
    call_count: "> 1000000"
    avg_time_us: "< 2"
  suggestions:
    - Batch work to reduce per-call overhead
- id: cpu_saturation
  meaning: The target keeps a core busy
  condition:
    system.cpu_percent_max: ">= 90"
`

func TestParse(t *testing.T) {
	rules, ruleErrs, err := Parse([]byte(samplePatterns))
	require.NoError(t, err)
	assert.Empty(t, ruleErrs)
	require.Len(t, rules, 2)

	first := rules[0]
	assert.Equal(t, "excessive_function_calls", first.ID)
	assert.Equal(t, "cpu", first.Category)
	assert.Equal(t, Condition{Op: OpGT, Threshold: 1e6}, first.Conditions["call_count"])
	assert.Equal(t, Condition{Op: OpLT, Threshold: 2}, first.Conditions["avg_time_us"])
	assert.Len(t, first.Suggestions, 1)

	assert.Equal(t, "cpu_saturation", rules[1].ID)
}

func TestParseIsolatesBadRules(t *testing.T) {
	doc := `
- id: good_rule
  meaning: fine
  condition:
    x: "> 1"
- id: bad_operator
  condition:
    x: "~ 1"
- meaning: missing id
  condition:
    x: "> 1"
- id: bad_threshold
  condition:
    x: "> not-a-number"
- id: no_conditions
  meaning: nothing to check
`
	rules, ruleErrs, err := Parse([]byte(doc))
	require.NoError(t, err)

	require.Len(t, rules, 1, "only the structurally valid rule loads")
	assert.Equal(t, "good_rule", rules[0].ID)

	require.Len(t, ruleErrs, 4)
	assert.Equal(t, "bad_operator", ruleErrs[0].ID)
	assert.Contains(t, ruleErrs[0].Error(), "unknown operator")
	assert.Contains(t, ruleErrs[1].Error(), "no id")
	assert.Contains(t, ruleErrs[2].Error(), "not numeric")
	assert.Equal(t, "no_conditions", ruleErrs[3].ID)
}

func TestParseMalformedFile(t *testing.T) {
	_, _, err := Parse([]byte("{ this is not yaml: ["))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "performance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePatterns), 0o644))

	rules, ruleErrs, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, ruleErrs)
	assert.Len(t, rules, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
