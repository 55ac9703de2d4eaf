// Package patterns defines the declarative performance rules the analyzer
// evaluates, and loads them from YAML. Rules are data, never code: each
// condition is a comparison operator plus a numeric threshold, evaluated by
// a pure interpreter in the analyzer. Rules are loaded once per session and
// never mutated at runtime.
package patterns

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is a comparison between a metric value and a threshold.
type Operator string

const (
	OpGT  Operator = ">"
	OpLT  Operator = "<"
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpEQ  Operator = "=="
)

// Condition is one named requirement of a rule.
type Condition struct {
	Op        Operator `json:"op"`
	Threshold float64  `json:"threshold"`
}

// Matches evaluates the condition against a metric value.
func (c Condition) Matches(value float64) bool {
	switch c.Op {
	case OpGT:
		return value > c.Threshold
	case OpLT:
		return value < c.Threshold
	case OpGTE:
		return value >= c.Threshold
	case OpLTE:
		return value <= c.Threshold
	case OpEQ:
		return value == c.Threshold
	default:
		return false
	}
}

// ParseCondition parses the declarative form, e.g. "> 1000000" or "<=0.5".
// Operators must come first; longer operators are tried before their
// prefixes so ">=" never parses as ">" with a junk threshold.
func ParseCondition(raw string) (Condition, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Condition{}, fmt.Errorf("empty condition")
	}

	for _, op := range []Operator{OpGTE, OpLTE, OpEQ, OpGT, OpLT} {
		if !strings.HasPrefix(trimmed, string(op)) {
			continue
		}
		operand := strings.TrimSpace(trimmed[len(op):])
		threshold, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return Condition{}, fmt.Errorf("condition %q: threshold %q is not numeric", raw, operand)
		}
		return Condition{Op: op, Threshold: threshold}, nil
	}

	// A bare number means equality, matching the original declarative form.
	if threshold, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Condition{Op: OpEQ, Threshold: threshold}, nil
	}
	return Condition{}, fmt.Errorf("condition %q: unknown operator", raw)
}

// Rule is one declarative performance pattern. ID identifies the pattern in
// findings; Meaning is the human-readable summary carried into them.
type Rule struct {
	ID          string               `json:"id"`
	Meaning     string               `json:"meaning"`
	Category    string               `json:"category,omitempty"`
	Conditions  map[string]Condition `json:"conditions"`
	Suggestions []string             `json:"suggestions,omitempty"`
	MinEvidence int                  `json:"min_evidence,omitempty"`
}

// Validate checks the structural invariants of a loaded rule.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule %q has no conditions", r.ID)
	}
	if r.MinEvidence < 0 {
		return fmt.Errorf("rule %q: min_evidence must not be negative", r.ID)
	}
	return nil
}
