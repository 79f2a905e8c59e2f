// Package extract turns raw document bytes into plain text plus a page count.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Result is the extracted text of one document.
type Result struct {
	Text      string
	PageCount int
}

// Extractor dispatches on file extension: PDF via the pdf reader, anything
// else treated as UTF-8 plain text (one page).
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of a document. Malformed input fails with
// a wrapped domain.ErrExtraction; empty text is a valid result the caller
// decides how to handle.
func (e *Extractor) Extract(name string, data []byte) (Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	default:
		return extractPlain(data)
	}
}

func extractPlain(data []byte) (Result, error) {
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("not valid UTF-8 text: %w", domain.ErrExtraction)
	}
	return Result{Text: string(data), PageCount: 1}, nil
}
