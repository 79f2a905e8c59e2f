package docqa

import "github.com/kailas-cloud/docqa/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuestion   = domain.ErrInvalidQuestion
	ErrIngestRunning     = domain.ErrIngestRunning
	ErrEmbeddingProvider = domain.ErrEmbeddingProvider
	ErrGeneration        = domain.ErrGeneration
	ErrStore             = domain.ErrStore
	ErrDocumentNotFound  = domain.ErrDocumentNotFound
)
