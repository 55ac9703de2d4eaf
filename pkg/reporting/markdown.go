// Package reporting renders completed sessions for humans and machines. It
// consumes the session as a read-only aggregate and never recomputes
// metrics or findings.
package reporting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/domain"
)

// RenderMarkdown produces the human-readable report for a session.
func RenderMarkdown(session *domain.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# AutoProfiler Report for `%s`\n\n", strings.Join(session.Target.Command, " "))

	b.WriteString("## Execution Summary\n")
	fmt.Fprintf(&b, "- PID: %d\n", session.Process.PID)
	fmt.Fprintf(&b, "- Exit Status: %s\n", session.Process.ExitStatus)
	fmt.Fprintf(&b, "- Exit Code: %d\n", session.Process.ExitCode)
	fmt.Fprintf(&b, "- Started At: %s\n", session.Process.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(&b, "- Finished At: %s\n", session.Process.FinishedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(&b, "- Duration (s): %.3f\n", session.Process.Duration().Seconds())
	if session.Process.StdoutTruncated || session.Process.StderrTruncated {
		b.WriteString("- Output: truncated at the capture cap\n")
	}
	b.WriteString("\n")

	b.WriteString("## Artifacts\n")
	if len(session.Artifacts) == 0 {
		b.WriteString("- No artifacts were produced.\n")
	}
	for _, artifact := range session.Artifacts {
		if artifact.Degraded {
			fmt.Fprintf(&b, "- %s (%s): degraded: %s\n", artifact.Collector, artifact.Category, artifact.Warning)
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", artifact.Collector, artifact.Category, formatMetrics(artifact.Metrics))
	}
	b.WriteString("\n")

	b.WriteString("## Findings\n")
	if len(session.Findings) == 0 {
		b.WriteString("- No patterns matched; consider running with additional collectors.\n")
	}
	for _, finding := range session.Findings {
		fmt.Fprintf(&b, "- **%s** (confidence %.2f): %s\n", finding.PatternID, finding.Confidence, finding.Summary)
		fmt.Fprintf(&b, "  - Evidence: %s\n", formatEvidence(finding.Evidence))
		for _, suggestion := range finding.Suggestions {
			fmt.Fprintf(&b, "  - Suggestion: %s\n", suggestion)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Verification Steps\n")
	b.WriteString("- Re-run the profiler to confirm reproducibility.\n")
	b.WriteString("- Compare metrics across runs to track regression or improvement.\n")

	return b.String()
}

// formatMetrics renders scalar metrics sorted by key so reports are
// reproducible; structured values are summarized by size.
func formatMetrics(metrics map[string]any) string {
	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		switch v := metrics[key].(type) {
		case float64:
			parts = append(parts, fmt.Sprintf("%s=%g", key, v))
		case string:
			parts = append(parts, fmt.Sprintf("%s=%q", key, v))
		case []any:
			parts = append(parts, fmt.Sprintf("%s=[%d entries]", key, len(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	return strings.Join(parts, ", ")
}

func formatEvidence(evidence map[string]float64) string {
	keys := make([]string, 0, len(evidence))
	for key := range evidence {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", key, evidence[key]))
	}
	return strings.Join(parts, ", ")
}
