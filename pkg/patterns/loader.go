package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleDoc is the YAML shape of one rule entry.
type ruleDoc struct {
	ID          string            `yaml:"id"`
	Meaning     string            `yaml:"meaning"`
	Category    string            `yaml:"category"`
	Condition   map[string]string `yaml:"condition"`
	Suggestions []string          `yaml:"suggestions"`
	MinEvidence int               `yaml:"min_evidence"`
}

// RuleError describes one rule that failed to load. It is isolated: the
// remaining rules in the file load normally.
type RuleError struct {
	Index int
	ID    string
	Err   error
}

func (e RuleError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("rule %q (entry %d): %v", e.ID, e.Index, e.Err)
	}
	return fmt.Sprintf("rule entry %d: %v", e.Index, e.Err)
}

func (e RuleError) Unwrap() error {
	return e.Err
}

// Load reads an ordered sequence of rules from a YAML file. Structurally
// invalid rules are skipped and reported in the second return value; only a
// file that cannot be read or parsed at all fails the load.
func Load(path string) ([]Rule, []RuleError, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read pattern file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes rules from YAML bytes. See Load.
func Parse(raw []byte) ([]Rule, []RuleError, error) {
	var docs []ruleDoc
	if err := yaml.Unmarshal(raw, &docs); err != nil {
		return nil, nil, fmt.Errorf("parse pattern file: %w", err)
	}

	var (
		rules    []Rule
		ruleErrs []RuleError
	)
	for i, doc := range docs {
		rule, err := convert(doc)
		if err != nil {
			ruleErrs = append(ruleErrs, RuleError{Index: i, ID: doc.ID, Err: err})
			continue
		}
		rules = append(rules, rule)
	}
	return rules, ruleErrs, nil
}

func convert(doc ruleDoc) (Rule, error) {
	rule := Rule{
		ID:          doc.ID,
		Meaning:     doc.Meaning,
		Category:    doc.Category,
		Conditions:  make(map[string]Condition, len(doc.Condition)),
		Suggestions: doc.Suggestions,
		MinEvidence: doc.MinEvidence,
	}

	for metric, raw := range doc.Condition {
		cond, err := ParseCondition(raw)
		if err != nil {
			return Rule{}, fmt.Errorf("metric %q: %w", metric, err)
		}
		rule.Conditions[metric] = cond
	}

	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}
