package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/services"
)

// OCRProcessor extracts page texts from the stored PDF and moves the
// document from uploaded to ocr_completed.
type OCRProcessor struct {
	store     *docstore.Store
	extractor TextExtractor
	publisher Publisher
	logger    *slog.Logger
}

// NewOCRProcessor wires the OCR stage.
func NewOCRProcessor(store *docstore.Store, extractor TextExtractor, publisher Publisher, logger *slog.Logger) *OCRProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRProcessor{
		store:     store,
		extractor: extractor,
		publisher: publisher,
		logger:    logger.With(logging.String(logging.FieldComponent, "ocr")),
	}
}

// Handle processes one OCR event. Duplicate deliveries and events for
// deleted documents are no-ops.
func (p *OCRProcessor) Handle(ctx context.Context, id int64) error {
	logger := logging.WithContext(ctx, p.logger)

	claimed, err := claimStage(ctx, p.store, id, document.StageOCR)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			logger.Warn("document no longer exists, dropping event")
			return nil
		}
		return services.Wrap(services.ErrTransient, "ocr", "claim", "status transition failed", err)
	}
	if !claimed {
		logger.Debug("duplicate delivery, document already claimed")
		return nil
	}

	content, err := p.store.PDFContent(ctx, id)
	if err != nil {
		return failStage(ctx, p.store, logger, id, document.StageOCR,
			services.Wrap(services.ErrValidation, "ocr", "load", "reading pdf content", err))
	}

	pageTexts, err := p.extractor.PageTexts(ctx, content)
	if err != nil {
		return failStage(ctx, p.store, logger, id, document.StageOCR,
			services.Wrap(services.ErrExternalService, "ocr", "extract", "text extraction failed", err))
	}

	if err := p.store.CompleteOCR(ctx, id, pageTexts); err != nil {
		return failStage(ctx, p.store, logger, id, document.StageOCR,
			services.Wrap(services.ErrTransient, "ocr", "complete", "persisting page texts", err))
	}

	logger.Info("ocr completed", logging.Int("pages", len(pageTexts)))
	return publishNext(ctx, p.publisher, logger, id, document.StageOCR)
}
