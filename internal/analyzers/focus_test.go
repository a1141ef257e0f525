package analyzers

import (
	"errors"
	"testing"

	"github.com/accessguard/accessguard-agent/internal/schema"
	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

// focusEl builds a visible button with a strong focus outline so that
// tests targeting one check do not trip the indicator check as well.
func focusEl(idx int, sel string) snapshot.ElementNode {
	return snapshot.ElementNode{
		Index:    idx,
		Tag:      "button",
		Selector: sel,
		Visible:  true,
		Box:      snapshot.Box{X: 0, Y: float64(idx) * 40, W: 120, H: 32},
		Style:    snapshot.ComputedStyle{Background: cp(White)},
		DefaultState: snapshot.IndicatorStyle{
			Outline: "none",
		},
		FocusedState: snapshot.IndicatorStyle{
			Outline:      "2px solid",
			OutlineColor: cp(Black),
		},
	}
}

func mustFocus(t *testing.T, cfg Config) *FocusAnalyzer {
	t.Helper()
	a, err := NewFocusAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewFocusAnalyzer: %v", err)
	}
	return a
}

func TestFocusAnalyzer_UnreachableInteractive(t *testing.T) {
	removed := focusEl(0, "button.removed")
	removed.TabIndex = ip(-1)
	snap := &snapshot.PageSnapshot{
		Elements: []snapshot.ElementNode{removed, focusEl(1, "button.ok")},
	}

	issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	found := byType(issues, IssueUnreachable)
	if len(found) != 1 {
		t.Fatalf("got %d UNREACHABLE_INTERACTIVE, want 1", len(found))
	}
	if found[0].Severity != schema.SeverityHigh {
		t.Errorf("severity = %s, want high", found[0].Severity)
	}
	if found[0].Locator() != "button.removed" {
		t.Errorf("locator = %q, want button.removed", found[0].Locator())
	}
}

func TestFocusAnalyzer_NegativeTabindexOnNonInteractiveIgnored(t *testing.T) {
	div := snapshot.ElementNode{Index: 0, Tag: "div", Selector: "div.x", Visible: true, TabIndex: ip(-1)}
	snap := &snapshot.PageSnapshot{
		Elements: []snapshot.ElementNode{div, focusEl(1, "button.ok")},
	}
	issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if found := byType(issues, IssueUnreachable); len(found) != 0 {
		t.Errorf("non-interactive element flagged as unreachable: %+v", found)
	}
}

func TestFocusAnalyzer_FocusVisibility(t *testing.T) {
	t.Run("no_style_change", func(t *testing.T) {
		el := focusEl(0, "button.flat")
		el.FocusedState = el.DefaultState
		snap := &snapshot.PageSnapshot{Elements: []snapshot.ElementNode{el}}

		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		found := byType(issues, IssueFocusNotVisible)
		if len(found) != 1 || found[0].Severity != schema.SeverityHigh {
			t.Fatalf("want one high FOCUS_NOT_VISIBLE, got %+v", found)
		}
	})

	t.Run("low_contrast_indicator", func(t *testing.T) {
		el := focusEl(0, "button.pale")
		el.FocusedState.OutlineColor = cp(gray(0.95))
		snap := &snapshot.PageSnapshot{Elements: []snapshot.ElementNode{el}}

		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		found := byType(issues, IssueFocusNotVisible)
		if len(found) != 1 {
			t.Fatalf("got %d FOCUS_NOT_VISIBLE, want 1", len(found))
		}
		ratio, _ := found[0].Evidence["contrast_ratio"].(float64)
		if ratio >= focusIndicatorMinRatio {
			t.Errorf("evidence ratio %v should be below %v", ratio, focusIndicatorMinRatio)
		}
	})

	t.Run("strong_indicator_passes", func(t *testing.T) {
		snap := &snapshot.PageSnapshot{Elements: []snapshot.ElementNode{focusEl(0, "button.good")}}
		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueFocusNotVisible); len(found) != 0 {
			t.Errorf("strong outline flagged: %+v", found)
		}
	})

	t.Run("unresolved_indicator_color_skips", func(t *testing.T) {
		el := focusEl(0, "button.odd")
		el.FocusedState.OutlineColor = nil
		snap := &snapshot.PageSnapshot{Elements: []snapshot.ElementNode{el}}

		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueFocusNotVisible); len(found) != 0 {
			t.Errorf("unresolved color should not fail outright: %+v", found)
		}
		if skips := byType(issues, IssueAnalysisSkipped); len(skips) != 1 {
			t.Errorf("got %d ANALYSIS_SKIPPED, want 1", len(skips))
		}
	})

	t.Run("box_shadow_change_counts", func(t *testing.T) {
		el := focusEl(0, "button.shadow")
		el.FocusedState = snapshot.IndicatorStyle{
			Outline:        "none",
			BoxShadow:      "0 0 0 3px",
			BoxShadowColor: cp(Black),
		}
		snap := &snapshot.PageSnapshot{Elements: []snapshot.ElementNode{el}}
		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueFocusNotVisible); len(found) != 0 {
			t.Errorf("box-shadow indicator flagged: %+v", found)
		}
	})
}

func TestFocusAnalyzer_OrderMismatch(t *testing.T) {
	// Five tab stops laid out bottom-to-top: every pair is inverted
	// against the reading order, 10 inversions against a tolerance of 2.
	els := make([]snapshot.ElementNode, 5)
	for i := range els {
		els[i] = focusEl(i, "button.m"+string(rune('a'+i)))
		els[i].Box.Y = float64((len(els) - i) * 50)
	}
	snap := &snapshot.PageSnapshot{Elements: els}

	issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	found := byType(issues, IssueOrderMismatch)
	if len(found) != 1 {
		t.Fatalf("got %d FOCUS_ORDER_MISMATCH, want exactly 1 aggregate issue", len(found))
	}
	if found[0].Severity != schema.SeverityMedium {
		t.Errorf("severity = %s, want medium", found[0].Severity)
	}
	if inv, _ := found[0].Evidence["inversions"].(int); inv != 10 {
		t.Errorf("evidence inversions = %v, want 10", found[0].Evidence["inversions"])
	}
	pairs, _ := found[0].Evidence["element_pairs"].([][2]string)
	if len(pairs) != 10 {
		t.Errorf("evidence element_pairs has %d entries, want 10", len(pairs))
	}
}

func TestFocusAnalyzer_OrderMismatchUnderTolerance(t *testing.T) {
	// One adjacent swap in three stops is a single inversion, inside the
	// floor of 2.
	a := focusEl(0, "button.a")
	b := focusEl(1, "button.b")
	c := focusEl(2, "button.c")
	a.Box.Y, b.Box.Y, c.Box.Y = 100, 50, 150
	snap := &snapshot.PageSnapshot{Elements: []snapshot.ElementNode{a, b, c}}

	issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if found := byType(issues, IssueOrderMismatch); len(found) != 0 {
		t.Errorf("single inversion flagged: %+v", found)
	}
}

func TestFocusAnalyzer_SkipLink(t *testing.T) {
	skipLink := func(idx int, href string) snapshot.ElementNode {
		el := focusEl(idx, "a.skip")
		el.Tag = "a"
		el.Href = href
		return el
	}
	mainContent := func(idx int) snapshot.ElementNode {
		return snapshot.ElementNode{Index: idx, Tag: "main", Selector: "main", DOMID: "main-content", Visible: true}
	}

	t.Run("no_focusable_elements", func(t *testing.T) {
		snap := &snapshot.PageSnapshot{
			Elements: []snapshot.ElementNode{{Index: 0, Tag: "p", Selector: "p.only", Visible: true}},
		}
		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueMissingSkipLink); len(found) != 1 {
			t.Fatalf("got %d MISSING_SKIP_LINK, want 1", len(found))
		}
	})

	t.Run("valid_skip_link", func(t *testing.T) {
		snap := &snapshot.PageSnapshot{
			Elements: []snapshot.ElementNode{skipLink(0, "#main-content"), focusEl(1, "button.nav"), mainContent(2)},
		}
		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueMissingSkipLink); len(found) != 0 {
			t.Errorf("valid skip link flagged: %+v", found)
		}
	})

	t.Run("first_stop_not_a_link", func(t *testing.T) {
		snap := &snapshot.PageSnapshot{
			Elements: []snapshot.ElementNode{focusEl(0, "button.first"), mainContent(1)},
		}
		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueMissingSkipLink); len(found) != 1 {
			t.Fatalf("got %d MISSING_SKIP_LINK, want 1", len(found))
		}
	})

	t.Run("target_does_not_exist", func(t *testing.T) {
		snap := &snapshot.PageSnapshot{
			Elements: []snapshot.ElementNode{skipLink(0, "#nowhere"), focusEl(1, "button.nav")},
		}
		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueMissingSkipLink); len(found) != 1 {
			t.Fatalf("got %d MISSING_SKIP_LINK, want 1", len(found))
		}
	})

	t.Run("target_before_link", func(t *testing.T) {
		snap := &snapshot.PageSnapshot{
			Elements: []snapshot.ElementNode{mainContent(0), skipLink(1, "#main-content")},
		}
		issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if found := byType(issues, IssueMissingSkipLink); len(found) != 1 {
			t.Fatalf("got %d MISSING_SKIP_LINK, want 1", len(found))
		}
	})
}

func TestFocusAnalyzer_KeyboardTrap(t *testing.T) {
	// Five buttons; the third redirects focus back to the first, so tab
	// stops one through three form a cycle that never reaches the last
	// stop. All trapped starting points collapse into one report.
	els := make([]snapshot.ElementNode, 5)
	for i := range els {
		els[i] = focusEl(i+1, "button.t"+string(rune('1'+i)))
	}
	els[2].NextFocusIndex = ip(1)
	snap := &snapshot.PageSnapshot{Elements: els}

	issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	found := byType(issues, IssueKeyboardTrap)
	if len(found) != 1 {
		t.Fatalf("got %d KEYBOARD_TRAP, want exactly 1", len(found))
	}
	if found[0].Severity != schema.SeverityCritical {
		t.Errorf("severity = %s, want critical", found[0].Severity)
	}
	trapped, _ := found[0].Evidence["trapped_elements"].([]string)
	want := []string{"button.t1", "button.t2", "button.t3"}
	if len(trapped) != len(want) {
		t.Fatalf("trapped_elements = %v, want %v", trapped, want)
	}
	for i := range want {
		if trapped[i] != want[i] {
			t.Errorf("trapped_elements[%d] = %q, want %q", i, trapped[i], want[i])
		}
	}
}

func TestFocusAnalyzer_LinearSequenceHasNoTrap(t *testing.T) {
	els := make([]snapshot.ElementNode, 4)
	for i := range els {
		els[i] = focusEl(i, "button.l"+string(rune('a'+i)))
	}
	snap := &snapshot.PageSnapshot{Elements: els}

	issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if found := byType(issues, IssueKeyboardTrap); len(found) != 0 {
		t.Errorf("linear sequence flagged as trap: %+v", found)
	}
}

func TestFocusAnalyzer_RedirectForwardIsNotATrap(t *testing.T) {
	// A redirect that jumps ahead still reaches the end of the sequence.
	els := make([]snapshot.ElementNode, 4)
	for i := range els {
		els[i] = focusEl(i, "button.f"+string(rune('a'+i)))
	}
	els[0].NextFocusIndex = ip(2)
	snap := &snapshot.PageSnapshot{Elements: els}

	issues, err := mustFocus(t, DefaultConfig()).Analyze(snap)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if found := byType(issues, IssueKeyboardTrap); len(found) != 0 {
		t.Errorf("forward redirect flagged as trap: %+v", found)
	}
}

func TestFocusAnalyzer_ContractViolations(t *testing.T) {
	a := mustFocus(t, DefaultConfig())

	if _, err := a.Analyze(nil); !errors.Is(err, snapshot.ErrNilSnapshot) {
		t.Errorf("nil snapshot: error = %v, want ErrNilSnapshot", err)
	}
	if _, err := a.Analyze(&snapshot.PageSnapshot{}); !errors.Is(err, snapshot.ErrEmptySnapshot) {
		t.Errorf("empty snapshot: error = %v, want ErrEmptySnapshot", err)
	}

	unordered := &snapshot.PageSnapshot{
		Elements: []snapshot.ElementNode{
			{Index: 5, Tag: "p", Selector: "p.a", Visible: true},
			{Index: 3, Tag: "p", Selector: "p.b", Visible: true},
		},
	}
	if _, err := a.Analyze(unordered); !errors.Is(err, snapshot.ErrUnorderedSnapshot) {
		t.Errorf("unordered snapshot: error = %v, want ErrUnorderedSnapshot", err)
	}
}
