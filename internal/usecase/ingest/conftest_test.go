package ingest

import (
	"context"
	"iter"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/ledger"
)

// mockSource implements Source for tests.
type mockSource struct {
	listFn func(ctx context.Context) ([]domain.SourceInfo, error)
	readFn func(ctx context.Context, name string) ([]byte, error)
}

func (m *mockSource) List(ctx context.Context) ([]domain.SourceInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockSource) Read(ctx context.Context, name string) ([]byte, error) {
	if m.readFn != nil {
		return m.readFn(ctx, name)
	}
	return []byte("document body"), nil
}

// mockExtractor implements Extractor for tests.
type mockExtractor struct {
	extractFn func(name string, data []byte) (extract.Result, error)
}

func (m *mockExtractor) Extract(name string, data []byte) (extract.Result, error) {
	if m.extractFn != nil {
		return m.extractFn(name, data)
	}
	return extract.Result{Text: string(data), PageCount: 1}, nil
}

// lineSegmenter yields one chunk per non-empty line.
type lineSegmenter struct{}

func (lineSegmenter) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	embedManyFn func(ctx context.Context, texts []string) ([][]float32, error)
	calls       int
}

func (m *mockEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedManyFn != nil {
		return m.embedManyFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

// mockChunkStore implements ChunkStore for tests.
type mockChunkStore struct {
	upsertFn func(
		ctx context.Context, filename string, chunks []string, vectors [][]float32, ingestedAt time.Time,
	) (int, error)
	calls int
}

func (m *mockChunkStore) UpsertChunks(
	ctx context.Context, filename string, chunks []string, vectors [][]float32, ingestedAt time.Time,
) (int, error) {
	m.calls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, filename, chunks, vectors, ingestedAt)
	}
	return len(chunks), nil
}

// mockLedger implements LedgerStore in memory.
type mockLedger struct {
	manifest ledger.Manifest
	saveErr  error
	saves    int
}

func (m *mockLedger) Load() ledger.Manifest {
	if m.manifest == nil {
		return ledger.Manifest{}
	}
	return m.manifest
}

func (m *mockLedger) Save(manifest ledger.Manifest) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.manifest = manifest
	return nil
}

type testDeps struct {
	source   *mockSource
	extract  *mockExtractor
	embedder *mockEmbedder
	store    *mockChunkStore
	ledger   *mockLedger
}

func newTestService(t *testing.T, cfg Config) (*Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		source:   &mockSource{},
		extract:  &mockExtractor{},
		embedder: &mockEmbedder{},
		store:    &mockChunkStore{},
		ledger:   &mockLedger{},
	}
	svc := New(
		deps.source, deps.extract, lineSegmenter{},
		deps.embedder, deps.store, deps.ledger,
		cfg, zap.NewNop(),
	)
	return svc, deps
}

func sourceDoc(name string, size int64, modTime time.Time) domain.SourceInfo {
	return domain.SourceInfo{Name: name, Size: size, ModTime: modTime}
}
