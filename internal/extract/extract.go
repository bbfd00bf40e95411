// Package extract pulls per-page text out of stored PDF documents.
//
// It uses ledongthuc/pdf, a pure Go reader, so the daemon needs no external
// OCR binary for digitally produced PDFs.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor reads page texts from PDF bytes.
type Extractor struct{}

// New creates a PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// PageTexts returns the plain text of every page in document order. Pages
// that cannot be decoded yield empty strings so page numbering stays aligned
// with the source document. A PDF whose pages produce no text at all is an
// error; the document cannot move past the extraction stage without content.
func (e *Extractor) PageTexts(ctx context.Context, content []byte) ([]string, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty pdf content")
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	texts := make([]string, 0, numPages)
	anyText := false
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText != "" {
			anyText = true
		}
		texts = append(texts, pageText)
	}

	if !anyText {
		return nil, fmt.Errorf("no extractable text in %d pages", numPages)
	}
	return texts, nil
}
