package analyzer

import (
	"math"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/patterns"
)

// Confidence scores a match from how far each metric lies beyond its
// threshold. Per condition the directional margin past the threshold is
// normalized by max(|threshold|, 1) and squashed through m/(1+m), giving a
// score in [0.5, 1) that grows strictly as the metric moves further past
// the threshold; equality conditions carry no margin and score 0.5. The
// final confidence is the mean across conditions, clamped to [0, 1].
//
// The function is pure: no randomness, no external lookups. Identical rule
// and evidence always score identically.
func Confidence(rule patterns.Rule, evidence map[string]float64) float64 {
	if len(rule.Conditions) == 0 || len(evidence) == 0 {
		return 0
	}

	total := 0.0
	counted := 0
	for key, cond := range rule.Conditions {
		value, ok := evidence[key]
		if !ok {
			continue
		}
		m := margin(cond, value)
		total += 0.5 + 0.5*(m/(1+m))
		counted++
	}
	if counted == 0 {
		return 0
	}

	return clamp01(total / float64(counted))
}

// margin is the distance past the threshold in the passing direction,
// normalized so thresholds of different magnitudes score comparably. A
// matched condition always has a non-negative margin.
func margin(cond patterns.Condition, value float64) float64 {
	scale := math.Max(math.Abs(cond.Threshold), 1)

	var m float64
	switch cond.Op {
	case patterns.OpGT, patterns.OpGTE:
		m = (value - cond.Threshold) / scale
	case patterns.OpLT, patterns.OpLTE:
		m = (cond.Threshold - value) / scale
	case patterns.OpEQ:
		m = 0
	}
	return math.Max(m, 0)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
