package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/ollama"
	"github.com/DavidStojani/pdf-management-sub000/internal/services"
)

const (
	fallbackTitle    = "Unknown Title"
	fallbackDateSent = "01.01.2000"

	metadataDateLayout = "02.01.2006"
)

// EnrichmentProcessor asks the metadata provider to describe the cleaned
// document text and moves the document from ocr_completed to
// enrichment_completed. When the provider fails or returns an unusable
// payload, the document is completed with placeholder metadata and flagged
// for review instead of being parked in an error status; the pipeline keeps
// moving either way.
type EnrichmentProcessor struct {
	store     *docstore.Store
	provider  EnrichmentProvider
	cleaner   TextCleaner
	publisher Publisher
	logger    *slog.Logger
}

// NewEnrichmentProcessor wires the enrichment stage.
func NewEnrichmentProcessor(store *docstore.Store, provider EnrichmentProvider, cleaner TextCleaner, publisher Publisher, logger *slog.Logger) *EnrichmentProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentProcessor{
		store:     store,
		provider:  provider,
		cleaner:   cleaner,
		publisher: publisher,
		logger:    logger.With(logging.String(logging.FieldComponent, "enrichment")),
	}
}

// Handle processes one enrichment event.
func (p *EnrichmentProcessor) Handle(ctx context.Context, id int64) error {
	logger := logging.WithContext(ctx, p.logger)

	claimed, err := claimStage(ctx, p.store, id, document.StageEnrichment)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			logger.Warn("document no longer exists, dropping event")
			return nil
		}
		return services.Wrap(services.ErrTransient, "enrichment", "claim", "status transition failed", err)
	}
	if !claimed {
		logger.Debug("duplicate delivery, document already claimed")
		return nil
	}

	pages, err := p.store.PageTexts(ctx, id)
	if err != nil {
		return failStage(ctx, p.store, logger, id, document.StageEnrichment,
			services.Wrap(services.ErrValidation, "enrichment", "load", "reading page texts", err))
	}
	if !hasPageText(pages) {
		return failStage(ctx, p.store, logger, id, document.StageEnrichment,
			services.Wrap(services.ErrValidation, "enrichment", "load", "no extracted page text", nil))
	}
	text := p.cleaner.CleanPages(pages)

	meta, degraded := p.extractMetadata(ctx, logger, text)

	dateOnDocument := parseMetadataDate(meta.DateSent, time.Now())
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}

	if err := p.store.CompleteEnrichment(ctx, id, meta.Title, dateOnDocument, tags, degraded); err != nil {
		return failStage(ctx, p.store, logger, id, document.StageEnrichment,
			services.Wrap(services.ErrTransient, "enrichment", "complete", "persisting metadata", err))
	}

	if degraded {
		logger.Warn("enrichment degraded, placeholder metadata stored")
	} else {
		logger.Info("enrichment completed", logging.String("title", meta.Title))
	}
	return publishNext(ctx, p.publisher, logger, id, document.StageEnrichment)
}

// extractMetadata calls the provider and falls back to placeholder metadata
// when the call fails or produces an unusable payload.
func (p *EnrichmentProcessor) extractMetadata(ctx context.Context, logger *slog.Logger, text string) (ollama.Metadata, bool) {
	fallback := ollama.Metadata{
		Title:    fallbackTitle,
		DateSent: fallbackDateSent,
		Tags:     []string{},
	}

	if strings.TrimSpace(text) == "" {
		logger.Warn("no usable text for enrichment")
		return fallback, true
	}

	meta, err := p.provider.ExtractMetadata(ctx, text)
	if err != nil {
		logger.Warn("metadata provider failed", logging.Error(err))
		return fallback, true
	}
	if strings.TrimSpace(meta.Title) == "" {
		logger.Warn("metadata provider returned no title")
		return fallback, true
	}
	return meta, false
}

// hasPageText reports whether at least one stored page carries text. A
// document with nothing to enrich is a stage failure, not a degraded
// completion.
func hasPageText(pages []string) bool {
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			return true
		}
	}
	return false
}

// parseMetadataDate converts the provider's dd.MM.yyyy date string. An
// unparseable date degrades to today rather than failing the stage.
func parseMetadataDate(value string, now time.Time) time.Time {
	parsed, err := time.Parse(metadataDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return parsed
}
