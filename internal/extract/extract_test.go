package extract

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func TestExtract_PlainText(t *testing.T) {
	e := New()
	res, err := e.Extract("policy.txt", []byte("Leave policy: 20 days annual leave."))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text != "Leave policy: 20 days annual leave." {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.PageCount != 1 {
		t.Errorf("expected page count 1, got %d", res.PageCount)
	}
}

func TestExtract_Markdown(t *testing.T) {
	e := New()
	res, err := e.Extract("notes.md", []byte("# Heading\n\nBody."))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text == "" {
		t.Error("expected non-empty text")
	}
}

func TestExtract_InvalidUTF8(t *testing.T) {
	e := New()
	_, err := e.Extract("data.txt", []byte{0xff, 0xfe, 0xfd})
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_MalformedPDF(t *testing.T) {
	e := New()
	_, err := e.Extract("broken.pdf", []byte("%PDF-1.4 this is not a real pdf"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_EmptyFile(t *testing.T) {
	e := New()
	res, err := e.Extract("empty.txt", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text != "" {
		t.Errorf("expected empty text, got %q", res.Text)
	}
}
