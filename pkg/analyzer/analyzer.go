// Package analyzer is the deterministic pattern-matching engine. It
// evaluates declarative rules against the metrics actually present in a
// session's artifacts and emits evidence-backed findings. The engine never
// infers or synthesizes missing values: a condition whose metric key is
// absent makes the rule inapplicable for that artifact, not true or false.
package analyzer

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
	"github.com/AutoProfilingRUC/autoprofiler/pkg/patterns"
)

// Analyzer evaluates a fixed rule set against profile artifacts.
type Analyzer struct {
	logger *zap.Logger
	rules  []patterns.Rule
}

// New creates an analyzer over the given rules.
func New(logger *zap.Logger, rules []patterns.Rule) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger, rules: rules}
}

// Analyze matches every rule against every artifact and returns findings
// ordered by descending confidence, then pattern id, then artifact order.
// The evaluation is pure: identical artifacts and rules always produce an
// identical finding sequence.
func (a *Analyzer) Analyze(artifacts []domain.ProfileArtifact) []domain.Finding {
	type ranked struct {
		finding  domain.Finding
		artifact int
	}

	var matched []ranked
	for idx, artifact := range artifacts {
		metrics := mergeMetrics(artifact)

		for _, rule := range a.rules {
			if rule.Category != "" && rule.Category != string(artifact.Category) {
				continue
			}

			evidence, ok := evaluate(rule, metrics)
			if !ok {
				continue
			}
			if rule.MinEvidence > 0 && len(evidence) < rule.MinEvidence {
				continue
			}

			finding := domain.Finding{
				ID:          fmt.Sprintf("finding_%d_%s", idx, rule.ID),
				PatternID:   rule.ID,
				Evidence:    evidence,
				Confidence:  Confidence(rule, evidence),
				Summary:     rule.Meaning,
				Suggestions: append([]string(nil), rule.Suggestions...),
			}
			matched = append(matched, ranked{finding: finding, artifact: idx})

			a.logger.Debug("Pattern matched",
				zap.String("pattern", rule.ID),
				zap.String("collector", artifact.Collector),
				zap.Float64("confidence", finding.Confidence),
			)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].finding.Confidence != matched[j].finding.Confidence {
			return matched[i].finding.Confidence > matched[j].finding.Confidence
		}
		if matched[i].finding.PatternID != matched[j].finding.PatternID {
			return matched[i].finding.PatternID < matched[j].finding.PatternID
		}
		return matched[i].artifact < matched[j].artifact
	})

	findings := make([]domain.Finding, len(matched))
	for i, m := range matched {
		findings[i] = m.finding
	}
	return findings
}

// evaluate checks every condition of the rule against the metric view. All
// conditions must be present and satisfied; the returned evidence holds the
// literal values that matched.
func evaluate(rule patterns.Rule, metrics map[string]float64) (map[string]float64, bool) {
	evidence := make(map[string]float64, len(rule.Conditions))
	for key, cond := range rule.Conditions {
		value, present := metrics[key]
		if !present {
			return nil, false
		}
		if !cond.Matches(value) {
			return nil, false
		}
		evidence[key] = value
	}
	return evidence, true
}

// mergeMetrics flattens an artifact's numeric metrics into a lookup view.
// Each key is also exposed namespaced by category ("cpu.total_calls") so
// rules can disambiguate between collectors. Non-numeric values are
// ignored; they can never satisfy a threshold comparison.
func mergeMetrics(artifact domain.ProfileArtifact) map[string]float64 {
	merged := make(map[string]float64, 2*len(artifact.Metrics))
	for key, value := range artifact.Metrics {
		number, ok := toFloat(value)
		if !ok {
			continue
		}
		merged[key] = number
		merged[string(artifact.Category)+"."+key] = number
	}
	return merged
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
