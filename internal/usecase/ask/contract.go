package ask

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ChunkReader runs KNN search over stored chunks.
type ChunkReader interface {
	Query(ctx context.Context, vector []float32, topK int) ([]domain.QueryMatch, error)
}

// Generator produces an answer from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
