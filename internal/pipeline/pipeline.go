package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/ollama"
	"github.com/DavidStojani/pdf-management-sub000/internal/search"
)

// TextExtractor pulls per-page text out of PDF bytes.
type TextExtractor interface {
	PageTexts(ctx context.Context, content []byte) ([]string, error)
}

// TextCleaner normalizes extracted page text.
type TextCleaner interface {
	Clean(raw string) string
	CleanPages(pages []string) string
}

// EnrichmentProvider derives document metadata from cleaned text.
type EnrichmentProvider interface {
	ExtractMetadata(ctx context.Context, text string) (ollama.Metadata, error)
}

// SearchIndexClient writes enriched documents into the search index.
type SearchIndexClient interface {
	Index(ctx context.Context, doc search.IndexableDocument) error
}

// Publisher hands stage events to the next worker pool.
type Publisher interface {
	Publish(ctx context.Context, event bus.Event) error
}

// claimStage moves the document into the stage's in-progress status. A
// document enters either from the previous stage's completed status or from
// its own error status when a retry is dispatched. When neither transition
// applies, another delivery already claimed the document and the event is a
// duplicate.
func claimStage(ctx context.Context, store *docstore.Store, id int64, stage document.Stage) (bool, error) {
	applied, err := store.UpdateStatusIfCurrent(ctx, id, stage.EntryStatus(), stage.InProgressStatus())
	if err != nil || applied {
		return applied, err
	}
	return store.UpdateStatusIfCurrent(ctx, id, stage.ErrorStatus(), stage.InProgressStatus())
}

// failStage records the attempt and surfaces the cause to the caller.
func failStage(ctx context.Context, store *docstore.Store, logger *slog.Logger, id int64, stage document.Stage, cause error) error {
	if markErr := store.MarkStageFailure(ctx, id, stage, cause); markErr != nil {
		logger.Error("recording stage failure failed", logging.Error(markErr))
		return errors.Join(cause, markErr)
	}
	return cause
}

func publishNext(ctx context.Context, publisher Publisher, logger *slog.Logger, id int64, stage document.Stage) error {
	next, ok := stage.Next()
	if !ok {
		return nil
	}
	if err := publisher.Publish(ctx, bus.Event{Stage: next, DocumentID: id}); err != nil {
		// The completed status is already committed; the recovery sweep
		// will pick the document up if this event is lost.
		logger.Warn("publishing next stage event failed",
			logging.String(logging.FieldStage, string(next)),
			logging.Error(err),
		)
		return fmt.Errorf("publish %s event: %w", next, err)
	}
	return nil
}
