package ingest

import (
	"context"
	"iter"
	"time"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/ledger"
)

// Source lists and reads raw documents.
type Source interface {
	List(ctx context.Context) ([]domain.SourceInfo, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// Extractor converts raw file bytes into plain text.
type Extractor interface {
	Extract(name string, data []byte) (extract.Result, error)
}

// Segmenter splits text into overlapping chunks.
type Segmenter interface {
	Chunks(text string) iter.Seq[string]
}

// Embedder vectorizes chunk batches. All-or-nothing per batch.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists embedded chunks.
type ChunkStore interface {
	UpsertChunks(
		ctx context.Context, filename string, chunks []string, vectors [][]float32, ingestedAt time.Time,
	) (int, error)
}

// LedgerStore loads and saves the ingestion manifest.
type LedgerStore interface {
	Load() ledger.Manifest
	Save(m ledger.Manifest) error
}
