package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/ledger"
)

func TestRun_IngestsNewDocument(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	modTime := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("guide.md", 120, modTime)}, nil
	}
	deps.source.readFn = func(_ context.Context, name string) ([]byte, error) {
		return []byte("first chunk\nsecond chunk\nthird chunk"), nil
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Scanned != 1 || report.Ingested != 1 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Chunks != 3 {
		t.Errorf("expected 3 chunks, got %d", report.Chunks)
	}

	rec, ok := deps.ledger.manifest["guide.md"]
	if !ok {
		t.Fatal("expected ledger record")
	}
	if rec.Size != 120 || !rec.LastModified.Equal(modTime) || rec.ChunkCount != 3 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestRun_SkipsUnchangedDocument(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	modTime := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	deps.ledger.manifest = ledger.Manifest{
		"guide.md": {Size: 120, LastModified: modTime, ChunkCount: 3},
	}
	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("guide.md", 120, modTime)}, nil
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Skipped != 1 || report.Ingested != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if deps.embedder.calls != 0 {
		t.Errorf("embedder must not be called for unchanged docs, got %d calls", deps.embedder.calls)
	}
	if deps.store.calls != 0 {
		t.Errorf("store must not be called for unchanged docs, got %d calls", deps.store.calls)
	}
}

func TestRun_ReingestsModifiedDocument(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	oldTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newTime := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	deps.ledger.manifest = ledger.Manifest{
		"guide.md": {Size: 120, LastModified: oldTime, ChunkCount: 3},
	}
	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("guide.md", 120, newTime)}, nil
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Ingested != 1 || report.Skipped != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if !deps.ledger.manifest["guide.md"].LastModified.Equal(newTime) {
		t.Error("expected updated ledger record")
	}
}

func TestRun_EmbedFailureLeavesLedgerUntouched(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("bad.txt", 50, time.Now())}, nil
	}
	deps.embedder.embedManyFn = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, domain.ErrEmbeddingProvider
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Failed != 1 || report.Ingested != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if deps.store.calls != 0 {
		t.Error("store must not be called when embedding fails")
	}
	if _, ok := deps.ledger.manifest["bad.txt"]; ok {
		t.Error("failed document must not be recorded in the ledger")
	}
}

func TestRun_StoreFailureLeavesLedgerUntouched(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("doc.txt", 50, time.Now())}, nil
	}
	deps.store.upsertFn = func(
		_ context.Context, _ string, _ []string, _ [][]float32, _ time.Time,
	) (int, error) {
		return 0, domain.ErrStore
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Failed != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(deps.ledger.manifest) != 0 {
		t.Error("failed document must not be recorded in the ledger")
	}
}

func TestRun_OneFailureDoesNotAbortOthers(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{
			sourceDoc("good-one.txt", 10, time.Now()),
			sourceDoc("broken.pdf", 20, time.Now()),
			sourceDoc("good-two.txt", 30, time.Now()),
		}, nil
	}
	deps.extract.extractFn = func(name string, data []byte) (extract.Result, error) {
		if name == "broken.pdf" {
			return extract.Result{}, domain.ErrExtraction
		}
		return extract.Result{Text: string(data), PageCount: 1}, nil
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Ingested != 2 || report.Failed != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if _, ok := deps.ledger.manifest["good-one.txt"]; !ok {
		t.Error("expected good-one.txt in ledger")
	}
	if _, ok := deps.ledger.manifest["good-two.txt"]; !ok {
		t.Error("expected good-two.txt in ledger")
	}
	if _, ok := deps.ledger.manifest["broken.pdf"]; ok {
		t.Error("broken.pdf must not be in ledger")
	}
}

func TestRun_SecondConcurrentRunRejected(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	started := make(chan struct{})
	release := make(chan struct{})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("slow.txt", 10, time.Now())}, nil
	}
	deps.embedder.embedManyFn = func(_ context.Context, texts []string) ([][]float32, error) {
		close(started)
		<-release
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{0.1}
		}
		return vectors, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := svc.Run(context.Background()); err != nil {
			t.Errorf("first run failed: %v", err)
		}
	}()

	<-started
	if !svc.Running() {
		t.Error("expected Running() true during a run")
	}
	_, err := svc.Run(context.Background())
	if !errors.Is(err, domain.ErrIngestRunning) {
		t.Errorf("expected ErrIngestRunning, got %v", err)
	}

	close(release)
	wg.Wait()

	if svc.Running() {
		t.Error("expected Running() false after completion")
	}
	if svc.LastReport() == nil {
		t.Error("expected a last report after completion")
	}
}

func TestRun_EmptyDocumentSkippedWithoutRecord(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("empty.txt", 0, time.Now())}, nil
	}
	deps.source.readFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("   \n  \n"), nil
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Skipped != 1 || report.Ingested != 0 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if deps.embedder.calls != 0 {
		t.Errorf("embedder must not be called for empty docs, got %d calls", deps.embedder.calls)
	}
	if deps.store.calls != 0 {
		t.Errorf("store must not be called for empty docs, got %d calls", deps.store.calls)
	}
	if _, ok := deps.ledger.manifest["empty.txt"]; ok {
		t.Error("empty document must not be recorded in the ledger")
	}
	if deps.ledger.saves != 0 {
		t.Errorf("ledger must not be saved for empty docs, got %d saves", deps.ledger.saves)
	}
}

func TestRun_EmbedsInBatches(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 2, Concurrency: 1})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("doc.txt", 10, time.Now())}, nil
	}
	deps.source.readFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("a\nb\nc\nd\ne"), nil
	}

	var batchSizes []int
	deps.embedder.embedManyFn = func(_ context.Context, texts []string) ([][]float32, error) {
		batchSizes = append(batchSizes, len(texts))
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{0.1}
		}
		return vectors, nil
	}

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(batchSizes) != 3 || batchSizes[0] != 2 || batchSizes[1] != 2 || batchSizes[2] != 1 {
		t.Errorf("unexpected batch sizes: %v", batchSizes)
	}
}

func TestRun_LedgerSaveFailureIsNonFatal(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return []domain.SourceInfo{sourceDoc("doc.txt", 10, time.Now())}, nil
	}
	deps.ledger.saveErr = domain.ErrLedgerWrite

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Ingested != 1 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRun_ListFailure(t *testing.T) {
	svc, deps := newTestService(t, Config{BatchSize: 20, Concurrency: 1})

	deps.source.listFn = func(_ context.Context) ([]domain.SourceInfo, error) {
		return nil, errors.New("directory vanished")
	}

	_, err := svc.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "list documents") {
		t.Fatalf("expected list error, got %v", err)
	}
	if svc.Running() {
		t.Error("expected Running() false after failed run")
	}
}
