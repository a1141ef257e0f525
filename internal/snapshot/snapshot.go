package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Contract violations. A snapshot that trips one of these is an upstream
// bug, not a page defect, so analyzers fail fast instead of skipping.
var (
	ErrNilSnapshot       = errors.New("snapshot is nil")
	ErrEmptySnapshot     = errors.New("snapshot has no elements")
	ErrUnorderedSnapshot = errors.New("snapshot element indexes are not strictly increasing")
)

// Color is a fully resolved RGBA value. Channels and alpha are in [0, 1].
// The capture layer resolves CSS color strings (including currentColor
// chains) before the engine ever sees them; a nil *Color in the model
// means resolution failed and the element should be skipped.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Box is a bounding rectangle in viewport pixels.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// IndicatorStyle describes the visual treatment an element uses to mark
// a state, captured for both the default and focused states so the
// engine can tell whether focus is visually distinguishable.
type IndicatorStyle struct {
	Outline        string `json:"outline,omitempty"`
	OutlineColor   *Color `json:"outline_color,omitempty"`
	BoxShadow      string `json:"box_shadow,omitempty"`
	BoxShadowColor *Color `json:"box_shadow_color,omitempty"`
	BorderColor    *Color `json:"border_color,omitempty"`
}

// ComputedStyle holds the resolved style properties the analyzers need.
type ComputedStyle struct {
	Foreground *Color  `json:"foreground,omitempty"`
	Background *Color  `json:"background,omitempty"`
	FontSizePx float64 `json:"font_size_px,omitempty"`
	FontWeight int     `json:"font_weight,omitempty"`

	// HasNonColorCue is true when the element carries a distinguishing
	// signal besides hue: underline, border, icon, or marker text.
	HasNonColorCue bool `json:"has_non_color_cue,omitempty"`

	// Adjacent is the color the element sits against (typically the
	// parent background), used for non-text UI contrast.
	Adjacent *Color `json:"adjacent,omitempty"`

	// AdjacentText is the foreground color of the surrounding body text,
	// captured for inline links so color-only distinction can be judged.
	AdjacentText *Color `json:"adjacent_text,omitempty"`
}

// ElementNode is one rendered element of a captured page.
type ElementNode struct {
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
	Text     string `json:"text,omitempty"`
	Selector string `json:"selector"`
	DOMID    string `json:"dom_id,omitempty"`
	Href     string `json:"href,omitempty"`

	Style        ComputedStyle  `json:"style"`
	DefaultState IndicatorStyle `json:"default_state"`
	FocusedState IndicatorStyle `json:"focused_state"`

	Box      Box  `json:"box"`
	TabIndex *int `json:"tab_index,omitempty"`
	Visible  bool `json:"visible"`

	// NextFocusIndex, when set, is the document index that script-driven
	// focus management jumps to when Tab is pressed on this element.
	// Nil means focus advances to the next entry in the tab sequence.
	NextFocusIndex *int `json:"next_focus_index,omitempty"`
}

// PageSnapshot is an immutable capture of one rendered page. The engine
// only reads it; it never re-fetches or mutates.
type PageSnapshot struct {
	URL      string        `json:"url"`
	Viewport Box           `json:"viewport"`
	Elements []ElementNode `json:"elements"`
}

// Validate enforces the input contract: non-nil, at least one element,
// document order indexes unique and strictly increasing.
func (s *PageSnapshot) Validate() error {
	if s == nil {
		return ErrNilSnapshot
	}
	if len(s.Elements) == 0 {
		return ErrEmptySnapshot
	}
	for i := 1; i < len(s.Elements); i++ {
		if s.Elements[i].Index <= s.Elements[i-1].Index {
			return fmt.Errorf("%w: index %d follows %d",
				ErrUnorderedSnapshot, s.Elements[i].Index, s.Elements[i-1].Index)
		}
	}
	return nil
}

// Load reads a snapshot JSON file produced by the capture layer.
func Load(path string) (*PageSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap PageSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

// Save writes a captured snapshot for later offline analysis.
func (s *PageSnapshot) Save(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer fh.Close()

	enc := json.NewEncoder(fh)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// interactiveTags are the natively focusable element kinds. Links count
// only when they carry an href.
var interactiveTags = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
}

// NativelyFocusable reports whether the element is keyboard-focusable by
// its tag alone, without an explicit tabindex.
func (e *ElementNode) NativelyFocusable() bool {
	tag := strings.ToLower(e.Tag)
	if tag == "a" {
		return e.Href != ""
	}
	return interactiveTags[tag]
}

// Interactive reports whether the element is an interactive control at
// all, regardless of tabindex (used by the reachability check).
func (e *ElementNode) Interactive() bool {
	return e.NativelyFocusable() || e.TabIndex != nil
}

// SequentiallyFocusable reports whether sequential Tab navigation can
// reach this element: visible, and either natively focusable without an
// overriding negative tabindex, or carrying an explicit tabindex >= 0.
func (e *ElementNode) SequentiallyFocusable() bool {
	if !e.Visible {
		return false
	}
	if e.TabIndex != nil {
		return *e.TabIndex >= 0
	}
	return e.NativelyFocusable()
}

// FragmentTarget returns the element id referenced by a same-page
// fragment href, or "" when the href is not a fragment link.
func (e *ElementNode) FragmentTarget() string {
	if !strings.HasPrefix(e.Href, "#") || len(e.Href) < 2 {
		return ""
	}
	return e.Href[1:]
}
