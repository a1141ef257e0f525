package analyzers

import (
	"fmt"
	"math"
	"strings"

	"github.com/accessguard/accessguard-agent/internal/schema"
	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

// ContrastAnalyzerName identifies contrast findings in issue and summary
// output.
const ContrastAnalyzerName = "color_contrast_agent"

// Contrast thresholds from WCAG 2.2. The severity gap is policy: a
// failure more than one full ratio point below the requirement is high
// rather than medium. Kept as constants for score compatibility.
const (
	normalTextAA  = 4.5
	normalTextAAA = 7.0
	largeTextAA   = 3.0
	largeTextAAA  = 4.5
	nonTextAA     = 3.0

	severityGap = 1.0

	// colorOnlyLuminanceDelta is the luminance difference below which two
	// hues are treated as indistinguishable for color-only information.
	colorOnlyLuminanceDelta = 0.05
)

// Large-text boundaries in CSS points; font sizes arrive in pixels.
const (
	ptToPx          = 96.0 / 72.0
	largeTextPt     = 18.0
	largeBoldTextPt = 14.0
	boldWeight      = 600
)

// uiControlTags are the non-text UI components checked against the
// 3.0 adjacent-color requirement.
var uiControlTags = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
}

// ContrastAnalyzer checks text and UI component contrast plus
// color-only information against the configured conformance level.
type ContrastAnalyzer struct {
	cfg Config
}

// NewContrastAnalyzer validates the configuration up front; a bad config
// never reaches analysis.
func NewContrastAnalyzer(cfg Config) (*ContrastAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ContrastAnalyzer{cfg: cfg}, nil
}

func (a *ContrastAnalyzer) Name() string { return ContrastAnalyzerName }

// Analyze walks the snapshot in document order and emits at most one
// issue per element and issue type.
func (a *ContrastAnalyzer) Analyze(snap *snapshot.PageSnapshot) ([]schema.Issue, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	var issues []schema.Issue
	seen := make(map[string]bool)

	emit := func(issue schema.Issue) {
		key := issue.Type + "|" + issue.Locator()
		if seen[key] {
			return
		}
		seen[key] = true
		issues = append(issues, issue)
	}

	for i := range snap.Elements {
		el := &snap.Elements[i]
		if !el.Visible {
			continue
		}

		if strings.TrimSpace(el.Text) != "" {
			if issue, ok := a.checkTextContrast(el); ok {
				emit(issue)
			}
		}
		if uiControlTags[strings.ToLower(el.Tag)] {
			if issue, ok := a.checkUIContrast(el); ok {
				emit(issue)
			}
		}
		if strings.ToLower(el.Tag) == "a" {
			if issue, ok := a.checkColorOnly(el); ok {
				emit(issue)
			}
		}
	}

	return issues, nil
}

// requiredTextRatio returns the threshold for the configured level.
// Level A evaluates against the AA table (no level-A contrast minimum).
func (a *ContrastAnalyzer) requiredTextRatio(large bool) float64 {
	if a.cfg.TargetLevel == LevelAAA {
		if large {
			return largeTextAAA
		}
		return normalTextAAA
	}
	if large {
		return largeTextAA
	}
	return normalTextAA
}

func isLargeText(sizePx float64, weight int) bool {
	if sizePx >= largeTextPt*ptToPx {
		return true
	}
	return weight >= boldWeight && sizePx >= largeBoldTextPt*ptToPx
}

// effectiveColors composites the element's foreground and background to
// opaque values. ok is false when either color could not be resolved by
// the capture layer; the caller skips the element rather than guessing.
func effectiveColors(el *snapshot.ElementNode) (fg, bg snapshot.Color, ok bool) {
	if el.Style.Foreground == nil || el.Style.Background == nil {
		return fg, bg, false
	}
	bg = Flatten(*el.Style.Background)
	fg = *el.Style.Foreground
	if fg.A < 1 {
		fg = CompositeOver(fg, bg)
	}
	return fg, bg, true
}

func (a *ContrastAnalyzer) checkTextContrast(el *snapshot.ElementNode) (schema.Issue, bool) {
	fg, bg, ok := effectiveColors(el)
	if !ok {
		return skippedIssue(ContrastAnalyzerName, el, "foreground or background color unresolved"), true
	}

	large := isLargeText(el.Style.FontSizePx, el.Style.FontWeight)
	required := a.requiredTextRatio(large)
	actual := ContrastRatio(fg, bg)
	if actual >= required {
		return schema.Issue{}, false
	}

	severity := schema.SeverityMedium
	if actual < required-severityGap {
		severity = schema.SeverityHigh
	}

	return schema.Issue{
		Agent:    ContrastAnalyzerName,
		Type:     IssueTextContrast,
		Severity: severity,
		Description: fmt.Sprintf("Text contrast ratio %.2f is below the %s requirement of %.1f",
			actual, a.cfg.TargetLevel, required),
		WCAGGuideline: "WCAG 2.2 - 1.4.3 Contrast (Minimum)",
		SuggestedFix:  fmt.Sprintf("Increase text/background contrast to at least %.1f:1", required),
		Evidence: map[string]any{
			schema.EvidenceLocator: el.Selector,
			"contrast_ratio":       actual,
			"required_ratio":       required,
			"target_level":         a.cfg.TargetLevel,
			"is_large_text":        large,
		},
	}, true
}

func (a *ContrastAnalyzer) checkUIContrast(el *snapshot.ElementNode) (schema.Issue, bool) {
	if el.Style.Background == nil || el.Style.Adjacent == nil {
		// Optional check; without a resolved adjacent color there is
		// nothing to compare and nothing to report.
		return schema.Issue{}, false
	}

	control := Flatten(*el.Style.Background)
	adjacent := Flatten(*el.Style.Adjacent)
	actual := ContrastRatio(control, adjacent)
	if actual >= nonTextAA {
		return schema.Issue{}, false
	}

	// One severity tier below text failures of the same gap.
	severity := schema.SeverityLow
	if actual < nonTextAA-severityGap {
		severity = schema.SeverityMedium
	}

	return schema.Issue{
		Agent:    ContrastAnalyzerName,
		Type:     IssueUIContrast,
		Severity: severity,
		Description: fmt.Sprintf("UI component contrast ratio %.2f is below the 3.0 minimum against adjacent colors",
			actual),
		WCAGGuideline: "WCAG 2.2 - 1.4.11 Non-text Contrast",
		SuggestedFix:  "Ensure the control boundary has at least 3.0:1 contrast with adjacent colors",
		Evidence: map[string]any{
			schema.EvidenceLocator: el.Selector,
			"contrast_ratio":       actual,
			"required_ratio":       nonTextAA,
			"target_level":         a.cfg.TargetLevel,
		},
	}, true
}

// checkColorOnly flags links whose only distinction from surrounding
// text is hue at equal luminance, with no underline, icon, or other
// non-color cue.
func (a *ContrastAnalyzer) checkColorOnly(el *snapshot.ElementNode) (schema.Issue, bool) {
	if el.Style.Foreground == nil || el.Style.AdjacentText == nil {
		return schema.Issue{}, false
	}
	if el.Style.HasNonColorCue {
		return schema.Issue{}, false
	}

	linkLum := RelativeLuminance(Flatten(*el.Style.Foreground))
	textLum := RelativeLuminance(Flatten(*el.Style.AdjacentText))
	delta := math.Abs(linkLum - textLum)
	if delta >= colorOnlyLuminanceDelta {
		return schema.Issue{}, false
	}

	return schema.Issue{
		Agent:    ContrastAnalyzerName,
		Type:     IssueColorOnlyInfo,
		Severity: schema.SeverityMedium,
		Description: fmt.Sprintf("Link is distinguished from surrounding text by hue alone (luminance difference %.3f)",
			delta),
		WCAGGuideline: "WCAG 2.2 - 1.4.1 Use of Color",
		SuggestedFix:  "Add an underline, icon, or other non-color cue to distinguish the link",
		Evidence: map[string]any{
			schema.EvidenceLocator: el.Selector,
			"luminance_delta":      delta,
		},
	}, true
}
