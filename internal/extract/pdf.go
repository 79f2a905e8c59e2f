package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// extractPDF reads plain text from a PDF. The pdf package panics on some
// malformed inputs, so parsing runs behind a recover that converts the
// panic into an extraction error.
func extractPDF(data []byte) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("malformed pdf: %v: %w", r, domain.ErrExtraction)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w: %w", domain.ErrExtraction, err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("extract pdf text: %w: %w", domain.ErrExtraction, err)
	}

	text, err := io.ReadAll(content)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf text: %w: %w", domain.ErrExtraction, err)
	}

	return Result{Text: string(text), PageCount: reader.NumPage()}, nil
}
