// Package aggregate turns heterogeneous analyzer findings into one
// comparable compliance signal.
package aggregate

import (
	"github.com/accessguard/accessguard-agent/internal/schema"
)

// Scoring weights. These are policy constants inherited from earlier
// releases of the scoring model; downstream consumers compare scores
// across versions, so they must not be re-derived.
const (
	criticalPenalty = 20
	highPenalty     = 10
	perIssuePenalty = 2
)

// Dedup collapses issues that describe the same concrete defect: same
// analyzer, same issue type, same element locator. The first occurrence
// wins; since the identity key is exact, the surviving set does not
// depend on input order.
func Dedup(issues []schema.Issue) []schema.Issue {
	seen := make(map[[3]string]bool, len(issues))
	out := make([]schema.Issue, 0, len(issues))
	for _, issue := range issues {
		key := [3]string{issue.Agent, issue.Type, issue.Locator()}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, issue)
	}
	return out
}

// Summarize produces a fresh Summary from an issue list. It deduplicates
// first, then counts by severity and agent (keys only for values that
// actually occur) and computes the compliance score. The same issue set
// yields the same Summary on every call, in any input order.
func Summarize(issues []schema.Issue) schema.Summary {
	issues = Dedup(issues)

	bySeverity := make(map[schema.Severity]int)
	byAgent := make(map[string]int)
	for _, issue := range issues {
		bySeverity[issue.Severity]++
		byAgent[issue.Agent]++
	}

	return schema.Summary{
		TotalIssues:     len(issues),
		BySeverity:      bySeverity,
		ByAgent:         byAgent,
		ComplianceScore: score(len(issues), bySeverity),
		Recommendation:  recommend(bySeverity),
	}
}

// score applies the weighted-penalty model: critical and high findings
// dominate, and the per-issue term lets many minor findings erode the
// score too. Medium/low/info are intentionally not weighted on their
// own beyond the total count.
func score(total int, bySeverity map[schema.Severity]int) int {
	s := 100 -
		criticalPenalty*bySeverity[schema.SeverityCritical] -
		highPenalty*bySeverity[schema.SeverityHigh] -
		perIssuePenalty*total
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// recommend maps the severity profile to a qualitative action tier.
func recommend(bySeverity map[schema.Severity]int) string {
	switch {
	case bySeverity[schema.SeverityCritical] > 0:
		return "CRITICAL: Resolve blocking accessibility barriers before release"
	case bySeverity[schema.SeverityHigh] > 0:
		return "HIGH: Multiple high-priority issues need attention"
	case bySeverity[schema.SeverityMedium] > 0 || bySeverity[schema.SeverityLow] > 0:
		return "LOW: Minor issues found, address during regular maintenance"
	default:
		return "PASS: No accessibility issues detected"
	}
}
