package analyzers

import (
	"errors"
	"fmt"

	"github.com/accessguard/accessguard-agent/internal/schema"
	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

// Issue type identifiers. These are part of the output contract and must
// stay stable across versions.
const (
	IssueTextContrast    = "TEXT_CONTRAST_FAIL"
	IssueUIContrast      = "UI_CONTRAST_FAIL"
	IssueColorOnlyInfo   = "COLOR_ONLY_INFO"
	IssueUnreachable     = "UNREACHABLE_INTERACTIVE"
	IssueFocusNotVisible = "FOCUS_NOT_VISIBLE"
	IssueOrderMismatch   = "FOCUS_ORDER_MISMATCH"
	IssueMissingSkipLink = "MISSING_SKIP_LINK"
	IssueKeyboardTrap    = "KEYBOARD_TRAP"
	IssueAnalysisSkipped = "ANALYSIS_SKIPPED"
)

// Analyzer is the shared capability every audit check implements. The
// set is closed on purpose: contrast and focus today, future analyzers
// join by implementing this, not through a plugin mechanism.
type Analyzer interface {
	Name() string
	Analyze(snap *snapshot.PageSnapshot) ([]schema.Issue, error)
}

// ErrInvalidConfig marks configuration rejected before analysis runs.
var ErrInvalidConfig = errors.New("invalid analyzer configuration")

// WCAG conformance levels recognized by Config.TargetLevel.
const (
	LevelA   = "A"
	LevelAA  = "AA"
	LevelAAA = "AAA"
)

// Config carries the engine options. Zero value is not usable; start
// from DefaultConfig and override.
type Config struct {
	// TargetLevel selects the contrast thresholds: AA (default) or AAA.
	// Level A is accepted for compatibility and evaluated against the AA
	// thresholds, since WCAG defines no level-A contrast minimum.
	TargetLevel string

	// MismatchTolerancePerTen is the number of focus-order inversions
	// tolerated per ten focusable elements before an order-mismatch
	// issue is raised.
	MismatchTolerancePerTen int

	// TrapStepBudgetMultiplier bounds keyboard-trap simulation at
	// multiplier × sequence length forward steps.
	TrapStepBudgetMultiplier int
}

// DefaultConfig matches the documented defaults: AA, 1 inversion per
// ten elements, 2× step budget.
func DefaultConfig() Config {
	return Config{
		TargetLevel:              LevelAA,
		MismatchTolerancePerTen:  1,
		TrapStepBudgetMultiplier: 2,
	}
}

// Validate rejects unusable options at configuration time, before any
// analysis runs.
func (c Config) Validate() error {
	switch c.TargetLevel {
	case LevelA, LevelAA, LevelAAA:
	default:
		return fmt.Errorf("%w: unknown target level %q", ErrInvalidConfig, c.TargetLevel)
	}
	if c.MismatchTolerancePerTen < 0 {
		return fmt.Errorf("%w: mismatch tolerance must be >= 0, got %d",
			ErrInvalidConfig, c.MismatchTolerancePerTen)
	}
	if c.TrapStepBudgetMultiplier < 1 {
		return fmt.Errorf("%w: trap step budget multiplier must be >= 1, got %d",
			ErrInvalidConfig, c.TrapStepBudgetMultiplier)
	}
	return nil
}

// skippedIssue records a single malformed element without aborting the
// run. PerElementSkip never escalates; it only leaves a trace.
func skippedIssue(agent string, el *snapshot.ElementNode, reason string) schema.Issue {
	return schema.Issue{
		Agent:       agent,
		Type:        IssueAnalysisSkipped,
		Severity:    schema.SeverityLow,
		Description: fmt.Sprintf("Element skipped during analysis: %s", reason),
		Evidence: map[string]any{
			schema.EvidenceLocator: el.Selector,
			"reason":               reason,
		},
	}
}
