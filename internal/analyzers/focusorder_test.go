package analyzers

import (
	"testing"

	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

func ip(i int) *int { return &i }

func TestBuildFocusOrder_PositiveTabindexFirst(t *testing.T) {
	snap := &snapshot.PageSnapshot{
		Elements: []snapshot.ElementNode{
			{Index: 0, Tag: "button", Selector: "button.a", Visible: true},
			{Index: 1, Tag: "input", Selector: "input.b", Visible: true, TabIndex: ip(2)},
			{Index: 2, Tag: "a", Selector: "a.c", Href: "/x", Visible: true, TabIndex: ip(1)},
			{Index: 3, Tag: "button", Selector: "button.d", Visible: true, TabIndex: ip(0)},
		},
	}

	order := BuildFocusOrder(snap)
	want := []string{"a.c", "input.b", "button.a", "button.d"}
	if len(order) != len(want) {
		t.Fatalf("got %d entries, want %d", len(order), len(want))
	}
	for i, sel := range want {
		if order[i].Element.Selector != sel {
			t.Errorf("position %d = %q, want %q", i, order[i].Element.Selector, sel)
		}
		if order[i].Position != i {
			t.Errorf("entry %d has Position %d", i, order[i].Position)
		}
	}
}

func TestBuildFocusOrder_DocumentOrderTieBreak(t *testing.T) {
	snap := &snapshot.PageSnapshot{
		Elements: []snapshot.ElementNode{
			{Index: 0, Tag: "button", Selector: "button.later", Visible: true, TabIndex: ip(1)},
			{Index: 1, Tag: "button", Selector: "button.earlier", Visible: true, TabIndex: ip(1)},
		},
	}
	order := BuildFocusOrder(snap)
	if len(order) != 2 {
		t.Fatalf("got %d entries, want 2", len(order))
	}
	if order[0].Element.Selector != "button.later" {
		t.Errorf("equal tabindex should keep document order, got %q first", order[0].Element.Selector)
	}
}

func TestBuildFocusOrder_Exclusions(t *testing.T) {
	snap := &snapshot.PageSnapshot{
		Elements: []snapshot.ElementNode{
			{Index: 0, Tag: "button", Selector: "button.neg", Visible: true, TabIndex: ip(-1)},
			{Index: 1, Tag: "button", Selector: "button.hidden", Visible: false},
			{Index: 2, Tag: "div", Selector: "div.plain", Visible: true},
			{Index: 3, Tag: "a", Selector: "a.nohref", Visible: true},
			{Index: 4, Tag: "button", Selector: "button.ok", Visible: true},
		},
	}
	order := BuildFocusOrder(snap)
	if len(order) != 1 || order[0].Element.Selector != "button.ok" {
		t.Fatalf("got %+v, want only button.ok", order)
	}
}

func TestBuildFocusOrder_DivWithTabindexIncluded(t *testing.T) {
	snap := &snapshot.PageSnapshot{
		Elements: []snapshot.ElementNode{
			{Index: 0, Tag: "div", Selector: "div.widget", Visible: true, TabIndex: ip(0)},
		},
	}
	if order := BuildFocusOrder(snap); len(order) != 1 {
		t.Fatalf("tabindex=0 div should be focusable, got %d entries", len(order))
	}
}
