package docstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/testsupport"
)

func TestCreateAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc, err := store.Create(ctx, "invoice.pdf", "application/pdf", "alice", testsupport.PDFBytes())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if doc.ID == 0 {
		t.Fatal("expected document ID to be assigned")
	}
	if doc.Status != document.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", doc.Status)
	}

	fetched, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Filename != "invoice.pdf" || fetched.Owner != "alice" {
		t.Fatalf("unexpected fetched document: %#v", fetched)
	}
	if fetched.UploadedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be populated")
	}

	content, err := store.PDFContent(ctx, doc.ID)
	if err != nil {
		t.Fatalf("PDFContent failed: %v", err)
	}
	if string(content) != string(testsupport.PDFBytes()) {
		t.Fatal("stored PDF content does not round-trip")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.GetByID(context.Background(), 9999); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusIfCurrent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "a.pdf", "alice")

	applied, err := store.UpdateStatusIfCurrent(ctx, doc.ID, document.StatusUploaded, document.StatusOCRInProgress)
	if err != nil {
		t.Fatalf("UpdateStatusIfCurrent failed: %v", err)
	}
	if !applied {
		t.Fatal("expected first transition to apply")
	}

	applied, err = store.UpdateStatusIfCurrent(ctx, doc.ID, document.StatusUploaded, document.StatusOCRInProgress)
	if err != nil {
		t.Fatalf("UpdateStatusIfCurrent failed: %v", err)
	}
	if applied {
		t.Fatal("expected repeated transition to lose the race")
	}

	status, err := store.GetStatus(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status != document.StatusOCRInProgress {
		t.Fatalf("expected ocr_in_progress, got %s", status)
	}

	if _, err := store.UpdateStatusIfCurrent(ctx, 9999, document.StatusUploaded, document.StatusOCRInProgress); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing document, got %v", err)
	}
}

func TestMarkStageFailureIncrementsRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "b.pdf", "alice")

	if err := store.MarkStageFailure(ctx, doc.ID, document.StageOCR, errors.New("text extraction produced no output")); err != nil {
		t.Fatalf("MarkStageFailure failed: %v", err)
	}

	updated, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != document.StatusOCRError {
		t.Fatalf("expected ocr_error, got %s", updated.Status)
	}
	if updated.OCRRetry.Count != 1 {
		t.Fatalf("expected retry count 1, got %d", updated.OCRRetry.Count)
	}
	if updated.OCRRetry.NextRetryAt == nil {
		t.Fatal("expected next retry time to be set")
	}
	if updated.OCRRetry.LastError != "text extraction produced no output" {
		t.Fatalf("unexpected last error: %q", updated.OCRRetry.LastError)
	}
	if updated.FailedEnrichment {
		t.Fatal("ocr failure should not set the enrichment flag")
	}

	if err := store.MarkStageFailure(ctx, doc.ID, document.StageOCR, errors.New("still failing")); err != nil {
		t.Fatalf("MarkStageFailure failed: %v", err)
	}
	updated, err = store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.OCRRetry.Count != 2 {
		t.Fatalf("expected retry count 2, got %d", updated.OCRRetry.Count)
	}
	second := *updated.OCRRetry.NextRetryAt
	first := time.Now().Add(store.Policy().Base)
	if second.Before(first) {
		t.Fatalf("expected second backoff beyond base delay, got %s", second)
	}
}

func TestMarkEnrichmentFailureSetsFlag(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "c.pdf", "alice")

	if err := store.MarkStageFailure(ctx, doc.ID, document.StageEnrichment, errors.New("model unavailable")); err != nil {
		t.Fatalf("MarkStageFailure failed: %v", err)
	}

	updated, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != document.StatusEnrichmentError {
		t.Fatalf("expected enrichment_error, got %s", updated.Status)
	}
	if !updated.FailedEnrichment {
		t.Fatal("expected failed_enrichment flag to be set")
	}

	if err := store.ResetStageRetry(ctx, doc.ID, document.StageEnrichment); err != nil {
		t.Fatalf("ResetStageRetry failed: %v", err)
	}
	updated, err = store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.FailedEnrichment {
		t.Fatal("expected enrichment reset to clear the flag")
	}
	if updated.EnrichmentRetry.Count != 0 || updated.EnrichmentRetry.NextRetryAt != nil || updated.EnrichmentRetry.LastError != "" {
		t.Fatalf("expected retry state cleared, got %#v", updated.EnrichmentRetry)
	}
}

func TestCompleteOCRStoresPages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "d.pdf", "alice")

	if err := store.MarkStageFailure(ctx, doc.ID, document.StageOCR, errors.New("first attempt failed")); err != nil {
		t.Fatalf("MarkStageFailure failed: %v", err)
	}
	if err := store.CompleteOCR(ctx, doc.ID, []string{"page one text", "page two text"}); err != nil {
		t.Fatalf("CompleteOCR failed: %v", err)
	}

	updated, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != document.StatusOCRCompleted {
		t.Fatalf("expected ocr_completed, got %s", updated.Status)
	}
	if updated.OCRRetry.Count != 0 || updated.OCRRetry.LastError != "" {
		t.Fatalf("expected OCR retry state cleared, got %#v", updated.OCRRetry)
	}

	texts, err := store.PageTexts(ctx, doc.ID)
	if err != nil {
		t.Fatalf("PageTexts failed: %v", err)
	}
	if len(texts) != 2 || texts[0] != "page one text" || texts[1] != "page two text" {
		t.Fatalf("unexpected page texts: %#v", texts)
	}

	// Re-running replaces the pages rather than appending.
	if err := store.CompleteOCR(ctx, doc.ID, []string{"fresh text"}); err != nil {
		t.Fatalf("CompleteOCR failed: %v", err)
	}
	texts, err = store.PageTexts(ctx, doc.ID)
	if err != nil {
		t.Fatalf("PageTexts failed: %v", err)
	}
	if len(texts) != 1 || texts[0] != "fresh text" {
		t.Fatalf("expected pages replaced, got %#v", texts)
	}
}

func TestCompleteEnrichmentPersistsMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "e.pdf", "alice")

	date := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)
	if err := store.CompleteEnrichment(ctx, doc.ID, "Invoice 2023", date, []string{"invoice", "finance"}, false); err != nil {
		t.Fatalf("CompleteEnrichment failed: %v", err)
	}

	updated, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != document.StatusEnrichmentCompleted {
		t.Fatalf("expected enrichment_completed, got %s", updated.Status)
	}
	if updated.Title != "Invoice 2023" {
		t.Fatalf("unexpected title: %q", updated.Title)
	}
	if updated.DateOnDocument == nil || !updated.DateOnDocument.Equal(date) {
		t.Fatalf("unexpected document date: %v", updated.DateOnDocument)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "invoice" {
		t.Fatalf("unexpected tags: %#v", updated.Tags)
	}
	if updated.FailedEnrichment {
		t.Fatal("expected clean enrichment to leave the flag unset")
	}
}

func TestCompleteEnrichmentDegradedKeepsFlag(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "f.pdf", "alice")

	date := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	if err := store.CompleteEnrichment(ctx, doc.ID, "Unknown Title", date, nil, true); err != nil {
		t.Fatalf("CompleteEnrichment failed: %v", err)
	}

	updated, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != document.StatusEnrichmentCompleted {
		t.Fatalf("expected enrichment_completed, got %s", updated.Status)
	}
	if !updated.FailedEnrichment {
		t.Fatal("expected degraded enrichment to keep the flag set")
	}
}

func TestCompleteIndexingIsTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "g.pdf", "alice")

	if err := store.CompleteIndexing(ctx, doc.ID); err != nil {
		t.Fatalf("CompleteIndexing failed: %v", err)
	}
	status, err := store.GetStatus(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status != document.StatusIndexingCompleted {
		t.Fatalf("expected indexing_completed, got %s", status)
	}
	if !status.IsTerminal() {
		t.Fatal("expected terminal status")
	}
}

func TestFindRetryableRespectsBackoffAndBudget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()

	ready := testsupport.NewDocument(t, store, "ready.pdf", "alice")
	if err := store.MarkStageFailure(ctx, ready.ID, document.StageOCR, errors.New("boom")); err != nil {
		t.Fatalf("MarkStageFailure failed: %v", err)
	}

	exhausted := testsupport.NewDocument(t, store, "exhausted.pdf", "alice")
	for i := 0; i < store.Policy().MaxAttempts; i++ {
		if err := store.MarkStageFailure(ctx, exhausted.ID, document.StageOCR, errors.New("boom")); err != nil {
			t.Fatalf("MarkStageFailure failed: %v", err)
		}
	}

	healthy := testsupport.NewDocument(t, store, "healthy.pdf", "alice")
	_ = healthy

	// Before the backoff window elapses, nothing is due.
	due, err := store.FindRetryable(ctx, document.StageOCR, time.Now(), 10)
	if err != nil {
		t.Fatalf("FindRetryable failed: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no documents due yet, got %d", len(due))
	}

	// Far enough in the future, only the document with budget left is due.
	future := time.Now().Add(48 * time.Hour)
	due, err = store.FindRetryable(ctx, document.StageOCR, future, 10)
	if err != nil {
		t.Fatalf("FindRetryable failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != ready.ID {
		t.Fatalf("expected only the retryable document, got %#v", due)
	}
}

func TestFindStaleInProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "stale.pdf", "alice")
	if err := store.UpdateStatus(ctx, doc.ID, document.StatusEnrichmentInProgress); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	fresh := testsupport.NewDocument(t, store, "fresh.pdf", "alice")
	if err := store.UpdateStatus(ctx, fresh.ID, document.StatusOCRInProgress); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	// A cutoff in the past matches nothing.
	stale, err := store.FindStaleInProgress(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("FindStaleInProgress failed: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("expected no stale documents, got %d", len(stale))
	}

	// A cutoff beyond both updates matches both in-progress documents.
	stale, err = store.FindStaleInProgress(ctx, time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("FindStaleInProgress failed: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected two stale documents, got %d", len(stale))
	}
}

func TestFindAwaitingDispatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	fresh := testsupport.NewDocument(t, store, "fresh.pdf", "alice")

	waiting := testsupport.NewDocument(t, store, "waiting.pdf", "alice")
	if err := store.CompleteOCR(ctx, waiting.ID, []string{"text"}); err != nil {
		t.Fatalf("CompleteOCR failed: %v", err)
	}

	// A cutoff in the past still returns the uploaded document: fresh
	// uploads have no publisher and must not wait out the stale window.
	docs, err := store.FindAwaitingDispatch(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("FindAwaitingDispatch failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != fresh.ID {
		t.Fatalf("expected only the uploaded document, got %#v", docs)
	}

	// Past the cutoff, the ocr_completed document counts as a lost event.
	docs, err = store.FindAwaitingDispatch(ctx, time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("FindAwaitingDispatch failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected both awaiting documents, got %d", len(docs))
	}
}

func TestRequeueStageRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc := testsupport.NewDocument(t, store, "parked.pdf", "alice")
	for i := 0; i < 3; i++ {
		if err := store.MarkStageFailure(ctx, doc.ID, document.StageOCR, errors.New("boom")); err != nil {
			t.Fatalf("MarkStageFailure failed: %v", err)
		}
	}

	if err := store.RequeueStageRetry(ctx, doc.ID, document.StageOCR); err != nil {
		t.Fatalf("RequeueStageRetry failed: %v", err)
	}

	updated, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != document.StatusOCRError {
		t.Fatalf("expected the error status to remain, got %s", updated.Status)
	}
	if updated.OCRRetry.Count != 1 {
		t.Fatalf("expected retry count 1 after requeue, got %d", updated.OCRRetry.Count)
	}
	if updated.OCRRetry.NextRetryAt == nil || updated.OCRRetry.NextRetryAt.After(time.Now()) {
		t.Fatalf("expected an elapsed next retry time, got %v", updated.OCRRetry.NextRetryAt)
	}
	if updated.OCRRetry.LastError == "" {
		t.Fatal("expected the last error to survive a requeue")
	}

	due, err := store.FindRetryable(ctx, document.StageOCR, time.Now(), 10)
	if err != nil {
		t.Fatalf("FindRetryable failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != doc.ID {
		t.Fatalf("expected the requeued document to be due, got %#v", due)
	}

	// Requeue only applies to documents parked in the stage's error status.
	healthy := testsupport.NewDocument(t, store, "healthy.pdf", "alice")
	if err := store.RequeueStageRetry(ctx, healthy.ID, document.StageOCR); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non-parked document, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewDocument(t, store, fmt.Sprintf("doc-%d.pdf", i), "alice")
	}
	done := testsupport.NewDocument(t, store, "done.pdf", "bob")
	if err := store.CompleteIndexing(ctx, done.ID); err != nil {
		t.Fatalf("CompleteIndexing failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 documents, got %d", len(all))
	}

	uploaded, err := store.List(ctx, document.StatusUploaded)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(uploaded) != 3 {
		t.Fatalf("expected 3 uploaded documents, got %d", len(uploaded))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[document.StatusUploaded] != 3 || stats[document.StatusIndexingCompleted] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}
