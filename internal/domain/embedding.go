package domain

import "context"

// EmbeddingResult holds a single embedding vector with token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text into fixed-dimension embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	// EmbedMany embeds inputs one at a time; the first failure aborts the
	// batch and reports which item failed.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator turns a grounded prompt into a prose answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HealthChecker is implemented by providers that can verify upstream availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
