package aggregate

import (
	"fmt"
	"testing"

	"github.com/meshintel/formscan/pkg/types"
)

// page builds a PageAnalysis with n generic elements.
func page(pageNum int, id string, n int) types.PageAnalysis {
	var elems []types.Element
	for i := 0; i < n; i++ {
		elems = append(elems, types.Element{
			ElementType:    types.ElementQuestion,
			PageNumber:     pageNum,
			QuestionNumber: fmt.Sprintf("%d", i+1),
			QuestionText:   fmt.Sprintf("page %d question %d", pageNum, i+1),
			Options:        "Yes, No",
			SelectedAnswer: "Yes",
		})
	}
	return types.PageAnalysis{PageNumber: pageNum, ParticipantID: id, Elements: elems}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string // detected id per page, in order
		wantIDs []string // resolved id per page, in order
	}{
		{
			name:    "single participant across all pages",
			ids:     []string{"A001", "A001", "A001"},
			wantIDs: []string{"A001", "A001", "A001"},
		},
		{
			name:    "unknown pages continue the current group",
			ids:     []string{"A001", "Unknown", "Unknown"},
			wantIDs: []string{"A001", "A001", "A001"},
		},
		{
			name:    "leading unknown run gets a placeholder",
			ids:     []string{"Unknown", "Unknown", "A002"},
			wantIDs: []string{"Unknown_1", "Unknown_1", "A002"},
		},
		{
			name:    "different id switches the current group",
			ids:     []string{"A001", "A002"},
			wantIDs: []string{"A001", "A002"},
		},
		{
			name:    "re-encountered id resolves to the same key",
			ids:     []string{"A001", "A002", "A001"},
			wantIDs: []string{"A001", "A002", "A001"},
		},
		{
			name:    "unknown never restarts a placeholder once set",
			ids:     []string{"Unknown", "A001", "Unknown", "A002", "Unknown"},
			wantIDs: []string{"Unknown_1", "A001", "A001", "A002", "A002"},
		},
		{
			name:    "all unknown stays in one placeholder",
			ids:     []string{"Unknown", "Unknown", "Unknown"},
			wantIDs: []string{"Unknown_1", "Unknown_1", "Unknown_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState()
			for i, detected := range tt.ids {
				var got string
				st, got = st.Resolve(detected)
				if got != tt.wantIDs[i] {
					t.Errorf("page %d: resolved %q, want %q", i+1, got, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestResolveCounterNeverReused(t *testing.T) {
	st := NewState()

	st, id := st.Resolve(types.UnknownID)
	if id != "Unknown_1" {
		t.Fatalf("first unknown resolved to %q, want Unknown_1", id)
	}
	if st.UnknownCounter != 2 {
		t.Errorf("UnknownCounter = %d, want 2", st.UnknownCounter)
	}

	// A later real id must not decrement or reset the counter.
	st, _ = st.Resolve("A001")
	if st.UnknownCounter != 2 {
		t.Errorf("UnknownCounter after real id = %d, want 2", st.UnknownCounter)
	}
}

func TestAggregateSingleParticipant(t *testing.T) {
	pages := []types.PageAnalysis{
		page(1, "A001", 2),
		page(2, "A001", 3),
		page(3, "A001", 1),
	}

	groups := Aggregate(pages)

	if groups.Len() != 1 {
		t.Fatalf("got %d groups, want 1", groups.Len())
	}
	elems := groups.Elements("A001")
	if len(elems) != 6 {
		t.Fatalf("got %d elements, want 6", len(elems))
	}
	// Elements must stay in page order.
	wantPages := []int{1, 1, 2, 2, 2, 3}
	for i, e := range elems {
		if e.PageNumber != wantPages[i] {
			t.Errorf("element %d: page %d, want %d", i, e.PageNumber, wantPages[i])
		}
	}
}

func TestAggregateStampsParticipantID(t *testing.T) {
	pages := []types.PageAnalysis{
		page(1, "Unknown", 2),
		page(2, "A001", 2),
		page(3, "Unknown", 1),
	}
	// Seed stale ids to prove they are overwritten, not trusted.
	for i := range pages {
		for j := range pages[i].Elements {
			pages[i].Elements[j].ParticipantID = "stale"
		}
	}

	groups := Aggregate(pages)

	for _, id := range groups.IDs() {
		for i, e := range groups.Elements(id) {
			if e.ParticipantID != id {
				t.Errorf("group %q element %d: ParticipantID = %q, want group key", id, i, e.ParticipantID)
			}
		}
	}
}

func TestAggregateLeadingUnknownRun(t *testing.T) {
	pages := []types.PageAnalysis{
		page(1, "Unknown", 2),
		page(2, "Unknown", 1),
		page(3, "A007", 3),
	}

	groups := Aggregate(pages)

	wantOrder := []string{"Unknown_1", "A007"}
	gotOrder := groups.IDs()
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("got %d groups %v, want %v", len(gotOrder), gotOrder, wantOrder)
	}
	for i, want := range wantOrder {
		if gotOrder[i] != want {
			t.Errorf("group[%d] = %q, want %q", i, gotOrder[i], want)
		}
	}
	if n := len(groups.Elements("Unknown_1")); n != 3 {
		t.Errorf("Unknown_1 has %d elements, want 3", n)
	}
	if n := len(groups.Elements("A007")); n != 3 {
		t.Errorf("A007 has %d elements, want 3", n)
	}
	if groups.TotalElements() != 6 {
		t.Errorf("TotalElements = %d, want 6 (no pages lost or duplicated)", groups.TotalElements())
	}
}

func TestAggregateConsecutiveSameIDDoesNotSplit(t *testing.T) {
	pages := []types.PageAnalysis{
		page(1, "A003", 1),
		page(2, "A003", 1),
	}

	groups := Aggregate(pages)

	if groups.Len() != 1 {
		t.Fatalf("got %d groups, want 1", groups.Len())
	}
	if n := len(groups.Elements("A003")); n != 2 {
		t.Errorf("A003 has %d elements, want 2", n)
	}
}

func TestAggregateReencounteredIDMergesByKey(t *testing.T) {
	// A, B, A: three accumulation events, two groups. A holds pages 1 and 3.
	pages := []types.PageAnalysis{
		page(1, "A001", 2),
		page(2, "B001", 1),
		page(3, "A001", 1),
	}

	groups := Aggregate(pages)

	if groups.Len() != 2 {
		t.Fatalf("got %d groups %v, want 2", groups.Len(), groups.IDs())
	}
	a := groups.Elements("A001")
	if len(a) != 3 {
		t.Fatalf("A001 has %d elements, want 3", len(a))
	}
	if a[0].PageNumber != 1 || a[1].PageNumber != 1 || a[2].PageNumber != 3 {
		t.Errorf("A001 element pages = [%d %d %d], want [1 1 3]", a[0].PageNumber, a[1].PageNumber, a[2].PageNumber)
	}
	if n := len(groups.Elements("B001")); n != 1 {
		t.Errorf("B001 has %d elements, want 1", n)
	}
}

func TestAggregateEmptyPageStillResolves(t *testing.T) {
	// Page 2 has no elements but its detected id must switch the current
	// group for page 3.
	pages := []types.PageAnalysis{
		page(1, "A001", 1),
		page(2, "A002", 0),
		page(3, "Unknown", 2),
	}

	groups := Aggregate(pages)

	if n := len(groups.Elements("A001")); n != 1 {
		t.Errorf("A001 has %d elements, want 1", n)
	}
	if n := len(groups.Elements("A002")); n != 2 {
		t.Errorf("A002 has %d elements, want 2 (unknown page follows the empty page's id)", n)
	}
}

func TestAggregateDegradedPageContributesNothing(t *testing.T) {
	// A degraded page arrives as ("Unknown", []) and must not disturb the
	// current group or lose elements.
	pages := []types.PageAnalysis{
		page(1, "A001", 2),
		{PageNumber: 2, ParticipantID: types.UnknownID, Degraded: true},
		page(3, "A001", 1),
	}

	groups := Aggregate(pages)

	if groups.Len() != 1 {
		t.Fatalf("got %d groups %v, want 1", groups.Len(), groups.IDs())
	}
	if n := len(groups.Elements("A001")); n != 3 {
		t.Errorf("A001 has %d elements, want 3", n)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	groups := Aggregate(nil)
	if groups.Len() != 0 {
		t.Errorf("got %d groups, want 0", groups.Len())
	}
	if groups.TotalElements() != 0 {
		t.Errorf("TotalElements = %d, want 0", groups.TotalElements())
	}
}
