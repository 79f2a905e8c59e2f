package domain

import "time"

// SourceInfo describes a candidate document as seen by a scan: its stable
// name plus the size/mtime fingerprint the ledger compares against.
type SourceInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Chunk is a bounded substring of a document's extracted text, the unit of
// embedding and retrieval. Index is 0-based and dense per document.
type Chunk struct {
	Source string
	Index  int
	Text   string
}
