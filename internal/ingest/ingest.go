package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/services"
)

var pdfMagic = []byte("%PDF-")

// Publisher dispatches the first stage event for accepted documents.
type Publisher interface {
	Publish(ctx context.Context, event bus.Event) error
}

// Service accepts uploaded PDFs into the pipeline.
type Service struct {
	store     *docstore.Store
	publisher Publisher
	logger    *slog.Logger
}

// NewService wires the ingest entry point.
func NewService(store *docstore.Store, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger.With(logging.String(logging.FieldComponent, "ingest")),
	}
}

// Add validates and persists an uploaded PDF, then dispatches it to the
// extraction stage. The document is durable once this returns; a lost
// dispatch event is recovered by the sweep.
func (s *Service) Add(ctx context.Context, filename, owner string, content []byte) (*document.Document, error) {
	if err := validate(filename, owner, content); err != nil {
		return nil, err
	}

	doc, err := s.store.Create(ctx, filepath.Base(filename), "application/pdf", owner, content)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "create", "persisting document", err)
	}

	logger := s.logger.With(logging.Int64(logging.FieldDocumentID, doc.ID))
	if err := s.publisher.Publish(ctx, bus.Event{Stage: document.StageOCR, DocumentID: doc.ID}); err != nil {
		logger.Warn("dispatching ocr event failed, recovery will pick the document up", logging.Error(err))
	}

	logger.Info("document accepted",
		logging.String("filename", doc.Filename),
		logging.String("owner", doc.Owner),
	)
	return doc, nil
}

func validate(filename, owner string, content []byte) error {
	if strings.TrimSpace(owner) == "" {
		return services.Wrap(services.ErrValidation, "ingest", "validate", "owner required", nil)
	}
	name := strings.TrimSpace(filename)
	if name == "" {
		return services.Wrap(services.ErrValidation, "ingest", "validate", "filename required", nil)
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return services.Wrap(services.ErrValidation, "ingest", "validate", "only .pdf files are accepted", nil)
	}
	if len(content) == 0 {
		return services.Wrap(services.ErrValidation, "ingest", "validate", "empty file", nil)
	}
	if !bytes.HasPrefix(content, pdfMagic) {
		return services.Wrap(services.ErrValidation, "ingest", "validate", "file is not a pdf", nil)
	}
	return nil
}
