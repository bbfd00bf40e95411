package testsupport

import (
	"context"
	"testing"

	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
)

// MustOpenStore opens a docstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(cfg)
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewDocument creates a freshly uploaded document for tests.
func NewDocument(t testing.TB, store *docstore.Store, filename, owner string) *document.Document {
	t.Helper()

	doc, err := store.Create(context.Background(), filename, "application/pdf", owner, PDFBytes())
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return doc
}

// PDFBytes returns a minimal payload that passes the ingest magic check.
func PDFBytes() []byte {
	return []byte("%PDF-1.4\n%test fixture\n%%EOF\n")
}
