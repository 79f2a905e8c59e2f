// Package chunks stores embedded document chunks in the vector index
// and retrieves the nearest ones for a query vector.
package chunks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Config holds index and batching parameters.
type Config struct {
	KeyPrefix       string // e.g. "docqa:"
	BatchSize       int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements the chunk store used by ingestion and retrieval.
type Repo struct {
	store           store
	prefix          string
	batchSize       int
	hnswM           int
	hnswEFConstruct int
}

// New creates a chunk repository.
func New(s store, cfg Config) *Repo {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 20
	}
	return &Repo{
		store:           s,
		prefix:          cfg.KeyPrefix,
		batchSize:       batch,
		hnswM:           cfg.HNSWM,
		hnswEFConstruct: cfg.HNSWEFConstruct,
	}
}

// EnsureIndex creates the vector index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, dimensions int) error {
	name := r.indexName()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w: %w", name, domain.ErrStore, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{r.chunkPrefix()},
		Fields: []db.IndexField{
			{Name: fieldSource, Type: db.IndexFieldTag},
			{Name: fieldChunkIndex, Type: db.IndexFieldNumeric},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorDim:         dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnswM,
				VectorEFConstruct: r.hnswEFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w: %w", name, domain.ErrStore, err)
	}
	return nil
}

// UpsertChunks writes all chunks of one document in batches. Chunk IDs are
// derived from the filename and position, so re-ingesting a document
// overwrites its previous chunks in place. Returns the number of chunks
// written; on error the count reflects full batches already flushed.
func (r *Repo) UpsertChunks(
	ctx context.Context, filename string, chunks []string, vectors [][]float32, ingestedAt time.Time,
) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk/vector count mismatch: %d != %d: %w",
			len(chunks), len(vectors), domain.ErrStore)
	}

	written := 0
	batch := make([]db.HashSetItem, 0, r.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.store.HSetMulti(ctx, batch); err != nil {
			return fmt.Errorf("upsert %d chunks of %s: %w: %w", len(batch), filename, domain.ErrStore, err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, text := range chunks {
		batch = append(batch, db.HashSetItem{
			Key:    r.chunkKey(filename, i),
			Fields: buildHashFields(filename, i, len(chunks), text, vectors[i], ingestedAt),
		})
		if len(batch) >= r.batchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}

// Query returns the topK nearest chunks for a query vector, best first.
func (r *Repo) Query(ctx context.Context, vector []float32, topK int) ([]domain.QueryMatch, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{fieldText, fieldSource, fieldChunkIndex, fieldTotalChunks, fieldIngestedAt},
	})
	if err != nil {
		return nil, fmt.Errorf("knn query: %w: %w", domain.ErrStore, err)
	}

	matches := make([]domain.QueryMatch, 0, len(result.Entries))
	for _, entry := range result.Entries {
		matches = append(matches, parseHashFields(entry))
	}
	return matches, nil
}

func (r *Repo) indexName() string {
	return r.prefix + "idx"
}

func (r *Repo) chunkPrefix() string {
	return r.prefix + "chunk:"
}

func (r *Repo) chunkKey(filename string, index int) string {
	return fmt.Sprintf("%s%s", r.chunkPrefix(), ChunkID(filename, index))
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ChunkID builds a deterministic chunk identifier from the source filename
// and chunk position. Unsafe characters are replaced so the ID stays a
// valid key segment.
func ChunkID(filename string, index int) string {
	return fmt.Sprintf("%s-chunk-%d", unsafeChars.ReplaceAllString(filename, "_"), index)
}
