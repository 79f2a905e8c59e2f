package segment

import (
	"fmt"
	"strings"
	"testing"
)

func collect(t *testing.T, s *Segmenter, text string) []string {
	t.Helper()
	var out []string
	for chunk := range s.Chunks(text) {
		out = append(out, chunk)
	}
	return out
}

func TestNew_InvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative chunk size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.chunkSize, tc.overlap); err == nil {
				t.Fatalf("expected error for chunkSize=%d overlap=%d", tc.chunkSize, tc.overlap)
			}
		})
	}
}

func TestChunks_EmptyInput(t *testing.T) {
	s, err := New(100, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, text := range []string{"", "   ", "\n\n\t \n"} {
		if got := collect(t, s, text); len(got) != 0 {
			t.Errorf("input %q: expected empty sequence, got %d chunks", text, len(got))
		}
	}
}

func TestChunks_ShortInputSingleChunk(t *testing.T) {
	s, _ := New(100, 20)
	got := collect(t, s, "hello world")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "hello world" {
		t.Errorf("expected input unchanged, got %q", got[0])
	}
}

func TestChunks_MaxSizeRespected(t *testing.T) {
	s, _ := New(50, 10)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	for _, chunk := range collect(t, s, text) {
		if n := len([]rune(chunk)); n > 50 {
			t.Errorf("chunk length %d exceeds chunk size 50: %q", n, chunk)
		}
	}
}

func TestChunks_FullCoverage(t *testing.T) {
	s, _ := New(80, 16)

	// Unique numbered sentences so each chunk occurs exactly once in the text.
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %04d carries unique content. ", i)
		if i%7 == 6 {
			b.WriteString("\n\n")
		}
	}
	text := b.String()
	chunks := collect(t, s, text)

	// Consecutive chunks overlap or touch, so their union covers the text.
	offset := 0
	for i, chunk := range chunks {
		idx := strings.Index(text, chunk)
		if idx < 0 {
			t.Fatalf("chunk %d not a substring of the input", i)
		}
		if idx > offset {
			t.Fatalf("gap before chunk %d: starts at %d, coverage ended at %d", i, idx, offset)
		}
		if end := idx + len(chunk); end > offset {
			offset = end
		}
	}
	if offset < len(text) {
		t.Errorf("tail of text not covered: covered %d of %d bytes", offset, len(text))
	}
}

func TestChunks_RawSplitOffsets(t *testing.T) {
	// No paragraph or sentence boundaries: cuts fall exactly at the raw
	// character limit, so chunk 0 spans [0,1000) and chunk 1 spans [800,1800).
	s, _ := New(1000, 200)
	text := strings.Repeat("abcdefghij", 200) // 2000 chars, no boundaries
	chunks := collect(t, s, text)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != text[:1000] {
		t.Errorf("chunk 0 does not span [0,1000)")
	}
	if chunks[1] != text[800:1800] {
		t.Errorf("chunk 1 does not span [800,1800)")
	}
}

func TestChunks_OverlapContainsStraddlingSentence(t *testing.T) {
	// A sentence planted around character 900 must appear whole in both
	// chunk 0 ([0,1000)) and chunk 1 ([800,1800)).
	sentinel := "Annual leave accrues monthly"
	filler := strings.Repeat("x", 900-len(sentinel)/2)
	text := filler + sentinel + strings.Repeat("y", 1000)

	s, _ := New(1000, 200)
	chunks := collect(t, s, text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], sentinel) {
		t.Error("sentence missing from first chunk")
	}
	if !strings.Contains(chunks[1], sentinel) {
		t.Error("sentence missing from second chunk")
	}
}

func TestChunks_PrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	s, _ := New(100, 10)
	chunks := collect(t, s, para)
	if len(chunks) < 2 {
		t.Fatalf("expected split at paragraph break, got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n\n") {
		t.Errorf("first chunk should end at the paragraph break, got %q tail", chunks[0][len(chunks[0])-5:])
	}
}

func TestChunks_PrefersSentenceBoundary(t *testing.T) {
	text := strings.Repeat("c", 58) + ". " + strings.Repeat("d", 60)
	s, _ := New(100, 10)
	chunks := collect(t, s, text)
	if len(chunks) < 2 {
		t.Fatalf("expected split at sentence end, got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("first chunk should end at the sentence terminator, got %q", chunks[0])
	}
}

func TestChunks_Restartable(t *testing.T) {
	s, _ := New(40, 8)
	text := strings.Repeat("Restartable sequences yield the same chunks. ", 10)
	seq := s.Chunks(text)

	var first, second []string
	for c := range seq {
		first = append(first, c)
	}
	for c := range seq {
		second = append(second, c)
	}
	if len(first) != len(second) {
		t.Fatalf("second pass yielded %d chunks, first %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between passes", i)
		}
	}
}

func TestChunks_EarlyBreak(t *testing.T) {
	s, _ := New(40, 8)
	text := strings.Repeat("Lazy iteration stops on break. ", 20)
	count := 0
	for range s.Chunks(text) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("expected iteration to stop after 2 chunks, got %d", count)
	}
}
