package analyzers

import (
	"sort"

	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

// FocusOrderEntry is one element's slot in the computed tab sequence.
// Entries are built fresh per audit run and discarded afterwards.
type FocusOrderEntry struct {
	Element  *snapshot.ElementNode
	Position int
}

// BuildFocusOrder derives the sequential Tab order from a snapshot,
// mirroring browser behavior: positive tabindex first (ascending, with
// document order as tie-break), then tabindex 0 and natively focusable
// elements in document order. Negative tabindex is unreachable by Tab
// and excluded. The tie-break makes this a total order.
func BuildFocusOrder(snap *snapshot.PageSnapshot) []FocusOrderEntry {
	var positive, natural []*snapshot.ElementNode
	for i := range snap.Elements {
		el := &snap.Elements[i]
		if !el.SequentiallyFocusable() {
			continue
		}
		if el.TabIndex != nil && *el.TabIndex > 0 {
			positive = append(positive, el)
		} else {
			natural = append(natural, el)
		}
	}

	sort.SliceStable(positive, func(i, j int) bool {
		if *positive[i].TabIndex != *positive[j].TabIndex {
			return *positive[i].TabIndex < *positive[j].TabIndex
		}
		return positive[i].Index < positive[j].Index
	})
	// natural is already in document order: snapshot indexes are
	// strictly increasing and we appended in slice order.

	entries := make([]FocusOrderEntry, 0, len(positive)+len(natural))
	for _, el := range positive {
		entries = append(entries, FocusOrderEntry{Element: el, Position: len(entries)})
	}
	for _, el := range natural {
		entries = append(entries, FocusOrderEntry{Element: el, Position: len(entries)})
	}
	return entries
}
