package extract_test

import (
	"context"
	"testing"

	"github.com/DavidStojani/pdf-management-sub000/internal/extract"
)

func TestPageTextsRejectsEmptyContent(t *testing.T) {
	e := extract.New()
	if _, err := e.PageTexts(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestPageTextsRejectsNonPDF(t *testing.T) {
	e := extract.New()
	if _, err := e.PageTexts(context.Background(), []byte("plain text, not a pdf")); err == nil {
		t.Fatal("expected error for non-PDF bytes")
	}
}
