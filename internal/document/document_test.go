package document_test

import (
	"testing"

	"github.com/DavidStojani/pdf-management-sub000/internal/document"
)

func TestParseStatus(t *testing.T) {
	status, ok := document.ParseStatus("  OCR_Completed ")
	if !ok || status != document.StatusOCRCompleted {
		t.Fatalf("unexpected parse result: %q %v", status, ok)
	}
	if _, ok := document.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to fail parsing")
	}
	if _, ok := document.ParseStatus(""); ok {
		t.Fatal("expected empty status to fail parsing")
	}
}

func TestStageStatusCycle(t *testing.T) {
	cases := []struct {
		stage      document.Stage
		entry      document.Status
		inProgress document.Status
		completed  document.Status
		errored    document.Status
	}{
		{document.StageOCR, document.StatusUploaded, document.StatusOCRInProgress, document.StatusOCRCompleted, document.StatusOCRError},
		{document.StageEnrichment, document.StatusOCRCompleted, document.StatusEnrichmentInProgress, document.StatusEnrichmentCompleted, document.StatusEnrichmentError},
		{document.StageIndexing, document.StatusEnrichmentCompleted, document.StatusIndexingInProgress, document.StatusIndexingCompleted, document.StatusIndexingError},
	}
	for _, tc := range cases {
		if got := tc.stage.EntryStatus(); got != tc.entry {
			t.Fatalf("%s entry: got %s want %s", tc.stage, got, tc.entry)
		}
		if got := tc.stage.InProgressStatus(); got != tc.inProgress {
			t.Fatalf("%s in-progress: got %s want %s", tc.stage, got, tc.inProgress)
		}
		if got := tc.stage.CompletedStatus(); got != tc.completed {
			t.Fatalf("%s completed: got %s want %s", tc.stage, got, tc.completed)
		}
		if got := tc.stage.ErrorStatus(); got != tc.errored {
			t.Fatalf("%s error: got %s want %s", tc.stage, got, tc.errored)
		}
	}
}

func TestStageOrdering(t *testing.T) {
	next, ok := document.StageOCR.Next()
	if !ok || next != document.StageEnrichment {
		t.Fatalf("ocr should be followed by enrichment, got %s %v", next, ok)
	}
	next, ok = document.StageEnrichment.Next()
	if !ok || next != document.StageIndexing {
		t.Fatalf("enrichment should be followed by indexing, got %s %v", next, ok)
	}
	if _, ok := document.StageIndexing.Next(); ok {
		t.Fatal("indexing is terminal")
	}
}

func TestStageForStatus(t *testing.T) {
	stage, ok := document.StageForStatus(document.StatusEnrichmentError)
	if !ok || stage != document.StageEnrichment {
		t.Fatalf("unexpected stage: %s %v", stage, ok)
	}
	if _, ok := document.StageForStatus(document.StatusUploaded); ok {
		t.Fatal("uploaded belongs to no stage")
	}
}

func TestStatusPredicates(t *testing.T) {
	if !document.StatusOCRInProgress.IsInProgress() {
		t.Fatal("ocr_in_progress should be in progress")
	}
	if document.StatusOCRCompleted.IsInProgress() {
		t.Fatal("ocr_completed is not in progress")
	}
	if !document.StatusIndexingError.IsError() {
		t.Fatal("indexing_error should be an error status")
	}
	if !document.StatusIndexingCompleted.IsTerminal() {
		t.Fatal("indexing_completed is the terminal status")
	}
	if document.StatusEnrichmentCompleted.IsTerminal() {
		t.Fatal("enrichment_completed is not terminal")
	}
}

func TestDisplayName(t *testing.T) {
	doc := document.Document{Filename: "scan-0042.pdf"}
	if got := doc.DisplayName(); got != "scan-0042.pdf" {
		t.Fatalf("unexpected display name: %q", got)
	}
	doc.Title = "Invoice 2023"
	if got := doc.DisplayName(); got != "Invoice 2023" {
		t.Fatalf("unexpected display name: %q", got)
	}
}
