package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/search"
	"github.com/DavidStojani/pdf-management-sub000/internal/services"
)

// IndexingProcessor pushes the enriched document into the search index and
// moves it to its terminal status.
type IndexingProcessor struct {
	store   *docstore.Store
	client  SearchIndexClient
	cleaner TextCleaner
	logger  *slog.Logger
}

// NewIndexingProcessor wires the indexing stage.
func NewIndexingProcessor(store *docstore.Store, client SearchIndexClient, cleaner TextCleaner, logger *slog.Logger) *IndexingProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexingProcessor{
		store:   store,
		client:  client,
		cleaner: cleaner,
		logger:  logger.With(logging.String(logging.FieldComponent, "indexing")),
	}
}

// Handle processes one indexing event.
func (p *IndexingProcessor) Handle(ctx context.Context, id int64) error {
	logger := logging.WithContext(ctx, p.logger)

	claimed, err := claimStage(ctx, p.store, id, document.StageIndexing)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			logger.Warn("document no longer exists, dropping event")
			return nil
		}
		return services.Wrap(services.ErrTransient, "indexing", "claim", "status transition failed", err)
	}
	if !claimed {
		logger.Debug("duplicate delivery, document already claimed")
		return nil
	}

	doc, err := p.store.GetByID(ctx, id)
	if err != nil {
		return failStage(ctx, p.store, logger, id, document.StageIndexing,
			services.Wrap(services.ErrValidation, "indexing", "load", "reading document", err))
	}
	pages, err := p.store.PageTexts(ctx, id)
	if err != nil {
		return failStage(ctx, p.store, logger, id, document.StageIndexing,
			services.Wrap(services.ErrValidation, "indexing", "load", "reading page texts", err))
	}

	indexable := search.IndexableDocument{
		ID:       doc.ID,
		Filename: doc.Filename,
		Owner:    doc.Owner,
		Title:    doc.Title,
		Tags:     doc.Tags,
		Text:     p.cleaner.CleanPages(pages),
	}
	if doc.DateOnDocument != nil {
		indexable.DateOnDocument = doc.DateOnDocument.Format("2006-01-02")
	}

	if err := p.client.Index(ctx, indexable); err != nil {
		return failStage(ctx, p.store, logger, id, document.StageIndexing,
			services.Wrap(services.ErrExternalService, "indexing", "index", "search index write failed", err))
	}

	if err := p.store.CompleteIndexing(ctx, id); err != nil {
		return failStage(ctx, p.store, logger, id, document.StageIndexing,
			services.Wrap(services.ErrTransient, "indexing", "complete", "persisting terminal status", err))
	}

	logger.Info("indexing completed")
	return nil
}
