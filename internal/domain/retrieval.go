package domain

import "time"

// QueryMatch is one similarity hit: stored chunk metadata plus the score.
// Matches are ranked descending by Score.
type QueryMatch struct {
	Score       float64
	Text        string
	Source      string
	ChunkIndex  int
	TotalChunks int
	IngestedAt  time.Time
}

// SourceRef identifies a source document that contributed to an answer,
// carrying the metadata of its highest-scoring chunk.
type SourceRef struct {
	Name       string
	Score      float64
	ChunkIndex int
}

// RetrievalResult is the assembled context for the answer generator.
// MatchCount == 0 means "no indexed content matched" and is not an error.
type RetrievalResult struct {
	Context    string
	Sources    []SourceRef
	MatchCount int
}

// Answer is a generated response grounded in retrieved chunks.
type Answer struct {
	Text       string
	Sources    []SourceRef
	MatchCount int
}
