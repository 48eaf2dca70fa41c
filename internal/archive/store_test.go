// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"testing"

	"github.com/meshintel/formscan/internal/aggregate"
	"github.com/meshintel/formscan/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.ArchiveConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePages() []types.PageAnalysis {
	return []types.PageAnalysis{
		{
			PageNumber:    1,
			ParticipantID: "A001",
			Elements: []types.Element{
				{ElementType: types.ElementHeader, PageNumber: 1, QuestionNumber: "N/A", QuestionText: "Consent Form", Options: "N/A"},
				{ElementType: types.ElementQuestion, PageNumber: 1, QuestionNumber: "1", QuestionText: "Do you consent?", Options: "Yes, No", SelectedAnswer: "Yes"},
			},
		},
		{PageNumber: 2, ParticipantID: types.UnknownID, Degraded: true},
		{
			PageNumber:    3,
			ParticipantID: "A002",
			Elements: []types.Element{
				{ElementType: types.ElementTable, PageNumber: 3, QuestionNumber: "5", QuestionText: "Rate 0-5", Options: "0,1,2,3,4,5", SelectedAnswer: "4", Notes: "circled"},
			},
		},
	}
}

func TestSaveRunLoadPagesRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, "scan.pdf", "out/Questionnaire.xlsx", samplePages())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	pages, err := s.LoadPages(ctx, runID)
	if err != nil {
		t.Fatalf("LoadPages: %v", err)
	}

	want := samplePages()
	if len(pages) != len(want) {
		t.Fatalf("got %d pages, want %d", len(pages), len(want))
	}
	for i := range want {
		if pages[i].PageNumber != want[i].PageNumber {
			t.Errorf("page[%d].PageNumber = %d, want %d", i, pages[i].PageNumber, want[i].PageNumber)
		}
		if pages[i].ParticipantID != want[i].ParticipantID {
			t.Errorf("page[%d].ParticipantID = %q, want %q", i, pages[i].ParticipantID, want[i].ParticipantID)
		}
		if pages[i].Degraded != want[i].Degraded {
			t.Errorf("page[%d].Degraded = %v, want %v", i, pages[i].Degraded, want[i].Degraded)
		}
		if len(pages[i].Elements) != len(want[i].Elements) {
			t.Fatalf("page[%d]: got %d elements, want %d", i, len(pages[i].Elements), len(want[i].Elements))
		}
		for j := range want[i].Elements {
			if pages[i].Elements[j] != want[i].Elements[j] {
				t.Errorf("page[%d].Elements[%d] = %+v, want %+v", i, j, pages[i].Elements[j], want[i].Elements[j])
			}
		}
	}
}

func TestLoadPagesReaggregatesIdentically(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	original := samplePages()
	wantGroups := aggregate.Aggregate(samplePages())

	runID, err := s.SaveRun(ctx, "scan.pdf", "", original)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	loaded, err := s.LoadPages(ctx, runID)
	if err != nil {
		t.Fatalf("LoadPages: %v", err)
	}

	gotGroups := aggregate.Aggregate(loaded)
	if gotGroups.Len() != wantGroups.Len() {
		t.Fatalf("got %d groups, want %d", gotGroups.Len(), wantGroups.Len())
	}
	for i, id := range wantGroups.IDs() {
		if gotGroups.IDs()[i] != id {
			t.Errorf("group[%d] = %q, want %q", i, gotGroups.IDs()[i], id)
		}
		if len(gotGroups.Elements(id)) != len(wantGroups.Elements(id)) {
			t.Errorf("group %q: got %d elements, want %d", id, len(gotGroups.Elements(id)), len(wantGroups.Elements(id)))
		}
	}
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.SaveRun(ctx, "first.pdf", "out/first.xlsx", samplePages()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := s.SaveRun(ctx, "second.pdf", "", samplePages()[:1]); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	// Newest first.
	if runs[0].SourcePDF != "second.pdf" {
		t.Errorf("runs[0].SourcePDF = %q, want second.pdf", runs[0].SourcePDF)
	}
	if runs[1].Pages != 3 || runs[1].Degraded != 1 || runs[1].Elements != 3 {
		t.Errorf("runs[1] counts = %d/%d/%d, want 3/1/3", runs[1].Pages, runs[1].Degraded, runs[1].Elements)
	}
	if runs[1].WorkbookPath != "out/first.xlsx" {
		t.Errorf("runs[1].WorkbookPath = %q", runs[1].WorkbookPath)
	}
}

func TestLoadPagesUnknownRun(t *testing.T) {
	s := testStore(t)
	if _, err := s.LoadPages(context.Background(), 42); err == nil {
		t.Error("expected error for unknown run id")
	}
}
