package schema

import "time"

// Severity buckets an issue by user impact, mapped to WCAG priority.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// SeverityOrder lists severities from most to least severe. Report and
// summary code iterates this instead of ranging over maps so output is
// stable.
var SeverityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// Rank returns a numeric rank for sorting, higher = more severe.
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Valid reports whether s is one of the five known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// EvidenceLocator is the evidence key that carries the element locator
// used for issue identity. Consumers depend on this string staying stable.
const EvidenceLocator = "element_locator"

// Issue is a normalized accessibility finding. Type strings and severity
// values are stable identifiers across versions; report generators and
// dashboards key on them.
type Issue struct {
	Agent         string         `json:"agent_name"`
	Type          string         `json:"issue_type"`
	Severity      Severity       `json:"severity"`
	Description   string         `json:"description"`
	WCAGGuideline string         `json:"wcag_guideline,omitempty"`
	SuggestedFix  string         `json:"suggested_fix,omitempty"`
	Evidence      map[string]any `json:"evidence,omitempty"`
}

// Locator returns the element locator from the issue evidence, or "" when
// the issue is not tied to a single element.
func (i Issue) Locator() string {
	if i.Evidence == nil {
		return ""
	}
	if loc, ok := i.Evidence[EvidenceLocator].(string); ok {
		return loc
	}
	return ""
}

// Summary aggregates a set of issues into one comparable compliance
// signal. It is always derived fresh from an issue list, never mutated.
type Summary struct {
	TotalIssues     int              `json:"total_issues"`
	BySeverity      map[Severity]int `json:"by_severity"`
	ByAgent         map[string]int   `json:"by_agent"`
	ComplianceScore int              `json:"compliance_score"`
	Recommendation  string           `json:"recommendation"`
}

// AuditResult groups all findings for one audited page.
type AuditResult struct {
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"wcag_level"`
	Issues    []Issue   `json:"issues"`
	Summary   Summary   `json:"summary"`
}
