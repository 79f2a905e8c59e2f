// Package segment splits extracted document text into overlapping chunks
// along natural boundaries: paragraph breaks first, sentence ends second,
// raw character positions last.
package segment

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
)

// Segmenter produces chunks of at most chunkSize runes where each chunk
// after the first starts no more than chunkSize-overlap runes after the
// previous chunk's start. The shared overlap region keeps a sentence that
// straddles a boundary fully inside at least one chunk.
type Segmenter struct {
	chunkSize int
	overlap   int
}

// New validates the chunking parameters.
func New(chunkSize, overlap int) (*Segmenter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be non-negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}
	return &Segmenter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunks returns a lazy, restartable sequence of chunks covering text.
// Empty or whitespace-only input yields an empty sequence. Chunks that are
// whitespace-only after a boundary cut are dropped.
func (s *Segmenter) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		runes := []rune(text)
		start := 0
		for start < len(runes) {
			end := start + s.chunkSize
			if end >= len(runes) {
				if chunk := string(runes[start:]); strings.TrimSpace(chunk) != "" {
					yield(chunk)
				}
				return
			}
			cut := s.cutPoint(runes, start, end)
			if chunk := string(runes[start:cut]); strings.TrimSpace(chunk) != "" {
				if !yield(chunk) {
					return
				}
			}
			next := cut - s.overlap
			if next <= start {
				next = start + 1
			}
			start = next
		}
	}
}

// cutPoint picks the end of the chunk starting at start: the last paragraph
// break in the window if any, else the last sentence end, else the raw
// character limit. Cuts before start+overlap+1 are rejected so the next
// chunk start always advances.
func (s *Segmenter) cutPoint(runes []rune, start, end int) int {
	low := start + s.overlap + 1
	if cut := lastParagraphBreak(runes, low, end); cut > 0 {
		return cut
	}
	if cut := lastSentenceEnd(runes, low, end); cut > 0 {
		return cut
	}
	return end
}

// lastParagraphBreak returns the cut position just after the last "\n\n"
// whose end falls in [low, end], or 0 if there is none.
func lastParagraphBreak(runes []rune, low, end int) int {
	for i := end - 2; i >= low-2 && i >= 0; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' && i+2 >= low {
			return i + 2
		}
	}
	return 0
}

// lastSentenceEnd returns the cut position just after the last sentence
// terminator followed by whitespace in [low, end], or 0 if there is none.
func lastSentenceEnd(runes []rune, low, end int) int {
	for i := end - 1; i >= low-1 && i >= 0; i-- {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if i+1 >= low {
			return i + 1
		}
	}
	return 0
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
