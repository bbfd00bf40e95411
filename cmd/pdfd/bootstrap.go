package main

import (
	"log/slog"
	"time"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/extract"
	"github.com/DavidStojani/pdf-management-sub000/internal/ollama"
	"github.com/DavidStojani/pdf-management-sub000/internal/pipeline"
	"github.com/DavidStojani/pdf-management-sub000/internal/search"
	"github.com/DavidStojani/pdf-management-sub000/internal/textutil"
)

func registerSubscriptions(eventBus *bus.Bus, cfg *config.Config, store *docstore.Store, logger *slog.Logger) error {
	cleaner := textutil.NewCleaner()

	ollamaClient := ollama.NewClient(
		ollama.WithBaseURL(cfg.Enrichment.BaseURL),
		ollama.WithModel(cfg.Enrichment.Model),
		ollama.WithTimeout(time.Duration(cfg.Enrichment.TimeoutSeconds)*time.Second),
	)
	searchClient := search.NewClient(
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithIndexName(cfg.Search.IndexName),
		search.WithTimeout(time.Duration(cfg.Search.TimeoutSeconds)*time.Second),
	)

	ocr := pipeline.NewOCRProcessor(store, extract.New(), eventBus, logger)
	enrichment := pipeline.NewEnrichmentProcessor(store, ollamaClient, cleaner, eventBus, logger)
	indexing := pipeline.NewIndexingProcessor(store, searchClient, cleaner, logger)

	if err := eventBus.Subscribe(document.StageOCR, cfg.Workflow.OCRWorkers, ocr.Handle); err != nil {
		return err
	}
	if err := eventBus.Subscribe(document.StageEnrichment, cfg.Workflow.EnrichmentWorkers, enrichment.Handle); err != nil {
		return err
	}
	return eventBus.Subscribe(document.StageIndexing, cfg.Workflow.IndexingWorkers, indexing.Handle)
}
