package analyzers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/accessguard/accessguard-agent/internal/schema"
	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

// FocusAnalyzerName identifies keyboard-navigation findings.
const FocusAnalyzerName = "keyboard_focus_agent"

// focusIndicatorMinRatio is the contrast a focus indicator must reach
// against the surrounding background to count as visible.
const focusIndicatorMinRatio = 3.0

// minMismatchThreshold is the floor for the focus-order inversion
// tolerance regardless of sequence length.
const minMismatchThreshold = 2

// FocusAnalyzer runs the keyboard-navigation checks over the tab
// sequence derived by BuildFocusOrder: reachability, focus-indicator
// visibility, logical order, skip link, and keyboard-trap detection.
type FocusAnalyzer struct {
	cfg Config
}

func NewFocusAnalyzer(cfg Config) (*FocusAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FocusAnalyzer{cfg: cfg}, nil
}

func (a *FocusAnalyzer) Name() string { return FocusAnalyzerName }

func (a *FocusAnalyzer) Analyze(snap *snapshot.PageSnapshot) ([]schema.Issue, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	order := BuildFocusOrder(snap)

	var issues []schema.Issue
	issues = append(issues, a.checkReachability(snap)...)
	issues = append(issues, a.checkFocusVisibility(order)...)
	if issue, ok := a.checkOrderMismatch(order); ok {
		issues = append(issues, issue)
	}
	if issue, ok := a.checkSkipLink(snap, order); ok {
		issues = append(issues, issue)
	}
	issues = append(issues, a.checkKeyboardTraps(order)...)
	return issues, nil
}

// checkReachability reports visible interactive elements that sequential
// Tab cannot reach because an explicit negative tabindex removed them.
func (a *FocusAnalyzer) checkReachability(snap *snapshot.PageSnapshot) []schema.Issue {
	var issues []schema.Issue
	for i := range snap.Elements {
		el := &snap.Elements[i]
		if !el.Visible || !el.NativelyFocusable() {
			continue
		}
		if el.TabIndex == nil || *el.TabIndex >= 0 {
			continue
		}
		issues = append(issues, schema.Issue{
			Agent:    FocusAnalyzerName,
			Type:     IssueUnreachable,
			Severity: schema.SeverityHigh,
			Description: fmt.Sprintf("Interactive <%s> is visible but removed from the tab order by tabindex=%d",
				strings.ToLower(el.Tag), *el.TabIndex),
			WCAGGuideline: "WCAG 2.2 - 2.1.1 Keyboard",
			SuggestedFix:  "Remove the negative tabindex or provide an equivalent keyboard-reachable control",
			Evidence: map[string]any{
				schema.EvidenceLocator: el.Selector,
				"tab_index":            *el.TabIndex,
			},
		})
	}
	return issues
}

// indicatorColor picks the color of the style property that changed
// between the default and focused states. ok is false when nothing
// changed; a nil color with ok=true means a change exists but its color
// could not be resolved.
func indicatorColor(def, foc snapshot.IndicatorStyle) (*snapshot.Color, bool) {
	if foc.Outline != def.Outline || !colorEqual(foc.OutlineColor, def.OutlineColor) {
		return foc.OutlineColor, true
	}
	if foc.BoxShadow != def.BoxShadow || !colorEqual(foc.BoxShadowColor, def.BoxShadowColor) {
		return foc.BoxShadowColor, true
	}
	if !colorEqual(foc.BorderColor, def.BorderColor) {
		return foc.BorderColor, true
	}
	return nil, false
}

func colorEqual(a, b *snapshot.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (a *FocusAnalyzer) checkFocusVisibility(order []FocusOrderEntry) []schema.Issue {
	var issues []schema.Issue
	for _, entry := range order {
		el := entry.Element

		color, changed := indicatorColor(el.DefaultState, el.FocusedState)
		if !changed {
			issues = append(issues, schema.Issue{
				Agent:         FocusAnalyzerName,
				Type:          IssueFocusNotVisible,
				Severity:      schema.SeverityHigh,
				Description:   "Element shows no visual change when focused",
				WCAGGuideline: "WCAG 2.2 - 2.4.7 Focus Visible",
				SuggestedFix:  "Add a focus outline or box-shadow with at least 3.0:1 contrast",
				Evidence: map[string]any{
					schema.EvidenceLocator: el.Selector,
					"reason":               "default and focused styles are identical",
				},
			})
			continue
		}
		if color == nil {
			// A change exists but its color cannot be resolved; never
			// guess about visibility.
			issues = append(issues, skippedIssue(FocusAnalyzerName, el, "focus indicator color unresolved"))
			continue
		}
		if el.Style.Background == nil {
			issues = append(issues, skippedIssue(FocusAnalyzerName, el, "background color unresolved"))
			continue
		}

		bg := Flatten(*el.Style.Background)
		ratio := ContrastRatio(Flatten(*color), bg)
		if ratio >= focusIndicatorMinRatio {
			continue
		}
		issues = append(issues, schema.Issue{
			Agent:    FocusAnalyzerName,
			Type:     IssueFocusNotVisible,
			Severity: schema.SeverityHigh,
			Description: fmt.Sprintf("Focus indicator contrast ratio %.2f is below the 3.0 minimum",
				ratio),
			WCAGGuideline: "WCAG 2.2 - 2.4.7 Focus Visible",
			SuggestedFix:  "Use a focus indicator color with at least 3.0:1 contrast against the background",
			Evidence: map[string]any{
				schema.EvidenceLocator: el.Selector,
				"contrast_ratio":       ratio,
				"required_ratio":       focusIndicatorMinRatio,
			},
		})
	}
	return issues
}

// checkOrderMismatch compares the tab sequence against a reading order
// derived from geometry (top to bottom, then left to right) and counts
// pairwise inversions. One aggregate issue is emitted when the count
// exceeds the configured tolerance.
func (a *FocusAnalyzer) checkOrderMismatch(order []FocusOrderEntry) (schema.Issue, bool) {
	n := len(order)
	if n < 2 {
		return schema.Issue{}, false
	}

	// Rank each entry in geometry order.
	byGeometry := make([]int, n)
	for i := range byGeometry {
		byGeometry[i] = i
	}
	sort.SliceStable(byGeometry, func(i, j int) bool {
		a, b := order[byGeometry[i]].Element.Box, order[byGeometry[j]].Element.Box
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	geomRank := make([]int, n)
	for rank, pos := range byGeometry {
		geomRank[pos] = rank
	}

	var pairs [][2]string
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if geomRank[i] > geomRank[j] {
				pairs = append(pairs, [2]string{
					order[i].Element.Selector,
					order[j].Element.Selector,
				})
			}
		}
	}

	threshold := a.cfg.MismatchTolerancePerTen * n / 10
	if threshold < minMismatchThreshold {
		threshold = minMismatchThreshold
	}
	if len(pairs) <= threshold {
		return schema.Issue{}, false
	}

	return schema.Issue{
		Agent:    FocusAnalyzerName,
		Type:     IssueOrderMismatch,
		Severity: schema.SeverityMedium,
		Description: fmt.Sprintf("Tab order disagrees with the visual reading order in %d element pairs (tolerance %d)",
			len(pairs), threshold),
		WCAGGuideline: "WCAG 2.2 - 2.4.3 Focus Order",
		SuggestedFix:  "Reorder the DOM or remove tabindex overrides so focus follows the visual layout",
		Evidence: map[string]any{
			"inversions":    len(pairs),
			"tolerance":     threshold,
			"element_pairs": pairs,
		},
	}, true
}

// checkSkipLink requires the first tab stop to be a fragment link whose
// target exists later in the document.
func (a *FocusAnalyzer) checkSkipLink(snap *snapshot.PageSnapshot, order []FocusOrderEntry) (schema.Issue, bool) {
	missing := schema.Issue{
		Agent:         FocusAnalyzerName,
		Type:          IssueMissingSkipLink,
		Severity:      schema.SeverityMedium,
		Description:   "The first focusable element is not a skip link to main content",
		WCAGGuideline: "WCAG 2.2 - 2.4.1 Bypass Blocks",
		SuggestedFix:  "Make the first tab stop a link to the main content landmark (e.g. <a href=\"#main-content\">)",
		Evidence:      map[string]any{},
	}

	if len(order) == 0 {
		missing.Evidence["reason"] = "page has no focusable elements"
		return missing, true
	}

	first := order[0].Element
	target := first.FragmentTarget()
	if strings.ToLower(first.Tag) != "a" || target == "" {
		missing.Evidence[schema.EvidenceLocator] = first.Selector
		missing.Evidence["reason"] = "first tab stop is not a fragment link"
		return missing, true
	}
	for i := range snap.Elements {
		el := &snap.Elements[i]
		if el.DOMID == target && el.Index > first.Index {
			return schema.Issue{}, false
		}
	}
	missing.Evidence[schema.EvidenceLocator] = first.Selector
	missing.Evidence["reason"] = fmt.Sprintf("skip link target #%s not found later in the document", target)
	return missing, true
}

// nextPosition resolves one forward Tab step from a sequence position,
// honoring script-driven focus redirection when the redirect target is
// itself in the sequence.
func nextPosition(order []FocusOrderEntry, posByIndex map[int]int, pos int) int {
	el := order[pos].Element
	if el.NextFocusIndex != nil {
		if p, ok := posByIndex[*el.NextFocusIndex]; ok {
			return p
		}
	}
	return (pos + 1) % len(order)
}

// checkKeyboardTraps simulates bounded forward traversal from every
// entry. A trap is a subcycle that keeps revisiting a strict subset of
// the sequence without ever reaching the final entry within the step
// budget. Each distinct looping subset is reported once.
func (a *FocusAnalyzer) checkKeyboardTraps(order []FocusOrderEntry) []schema.Issue {
	n := len(order)
	if n < 2 {
		return nil
	}

	posByIndex := make(map[int]int, n)
	for pos, entry := range order {
		posByIndex[entry.Element.Index] = pos
	}
	budget := a.cfg.TrapStepBudgetMultiplier * n
	final := n - 1

	var issues []schema.Issue
	reported := make(map[string]bool)

	for start := 0; start < n; start++ {
		pos := start
		reachedFinal := pos == final
		for step := 0; step < budget && !reachedFinal; step++ {
			pos = nextPosition(order, posByIndex, pos)
			if pos == final {
				reachedFinal = true
			}
		}
		if reachedFinal {
			continue
		}

		// The walk is deterministic, so after the budget it sits on its
		// terminal cycle; collect it by walking until a repeat.
		cycle := []int{}
		inCycle := make(map[int]bool)
		for !inCycle[pos] {
			inCycle[pos] = true
			cycle = append(cycle, pos)
			pos = nextPosition(order, posByIndex, pos)
		}
		sort.Ints(cycle)

		selectors := make([]string, len(cycle))
		for i, p := range cycle {
			selectors[i] = order[p].Element.Selector
		}
		key := strings.Join(selectors, "|")
		if reported[key] {
			continue
		}
		reported[key] = true

		issues = append(issues, schema.Issue{
			Agent:    FocusAnalyzerName,
			Type:     IssueKeyboardTrap,
			Severity: schema.SeverityCritical,
			Description: fmt.Sprintf("Keyboard focus cycles between %d elements and never reaches the rest of the page",
				len(cycle)),
			WCAGGuideline: "WCAG 2.2 - 2.1.2 No Keyboard Trap",
			SuggestedFix:  "Ensure standard Tab navigation can always move focus past these elements",
			Evidence: map[string]any{
				"trapped_elements": selectors,
				"step_budget":      budget,
			},
		})
	}
	return issues
}
