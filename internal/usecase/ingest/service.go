// Package ingest orchestrates the document indexing pipeline: scan,
// extract, segment, embed, and store, with a change ledger to skip
// unchanged documents on subsequent runs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/ledger"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// errNoContent marks a document that yields no chunks after extraction.
// Such documents are skipped, not recorded in the ledger.
var errNoContent = errors.New("no extractable text")

// Config holds pipeline tuning knobs.
type Config struct {
	BatchSize   int // chunks per embedding request
	Concurrency int // documents processed in parallel
}

// Service runs the ingestion pipeline. Only one run may be active at a time.
type Service struct {
	source    Source
	extractor Extractor
	segmenter Segmenter
	embedder  Embedder
	store     ChunkStore
	ledger    LedgerStore
	logger    *zap.Logger

	batchSize   int
	concurrency int

	running atomic.Bool

	mu         sync.Mutex
	lastReport *domain.IngestReport
}

// New creates an ingestion service.
func New(
	source Source, extractor Extractor, segmenter Segmenter,
	embedder Embedder, store ChunkStore, ledgerStore LedgerStore,
	cfg Config, logger *zap.Logger,
) *Service {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 20
	}
	conc := cfg.Concurrency
	if conc <= 0 {
		conc = 1
	}
	return &Service{
		source:      source,
		extractor:   extractor,
		segmenter:   segmenter,
		embedder:    embedder,
		store:       store,
		ledger:      ledgerStore,
		logger:      logger,
		batchSize:   batch,
		concurrency: conc,
	}
}

// Running reports whether an ingestion run is in progress.
func (s *Service) Running() bool {
	return s.running.Load()
}

// LastReport returns the report of the most recent completed run, or nil.
func (s *Service) LastReport() *domain.IngestReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// Run executes one full ingestion pass. A second concurrent call returns
// domain.ErrIngestRunning without doing any work. One document failing
// never aborts the run: it is counted and the rest proceed.
func (s *Service) Run(ctx context.Context) (domain.IngestReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.IngestReport{}, domain.ErrIngestRunning
	}
	defer s.running.Store(false)

	start := time.Now()

	docs, err := s.source.List(ctx)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("list documents: %w", err)
	}

	manifest := s.ledger.Load()

	var report domain.IngestReport
	report.Scanned = len(docs)

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.concurrency)
		mu  sync.Mutex // guards manifest and report counters
	)

	for _, doc := range docs {
		if manifest.Unchanged(doc.Name, doc.Size, doc.ModTime) {
			report.Skipped++
			metrics.IngestDocumentsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(doc domain.SourceInfo) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, err := s.processDocument(ctx, doc)

			mu.Lock()
			defer mu.Unlock()

			if errors.Is(err, errNoContent) {
				report.Skipped++
				metrics.IngestDocumentsTotal.WithLabelValues("skipped").Inc()
				s.logger.Warn("document skipped",
					zap.String("document", doc.Name),
					zap.Error(err))
				return
			}
			if err != nil {
				report.Failed++
				metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
				s.logger.Error("document ingestion failed",
					zap.String("document", doc.Name),
					zap.Error(err))
				return
			}

			manifest[doc.Name] = rec
			if err := s.ledger.Save(manifest); err != nil {
				// Next run re-ingests this document; upserts are idempotent.
				s.logger.Warn("ledger save failed",
					zap.String("document", doc.Name),
					zap.Error(err))
			}

			report.Ingested++
			report.Chunks += rec.ChunkCount
			metrics.IngestDocumentsTotal.WithLabelValues("ingested").Inc()
			metrics.IngestChunksTotal.Add(float64(rec.ChunkCount))
			s.logger.Info("document ingested",
				zap.String("document", doc.Name),
				zap.Int("chunks", rec.ChunkCount))
		}(doc)
	}

	wg.Wait()

	report.Duration = time.Since(start)
	metrics.IngestRunDuration.Observe(report.Duration.Seconds())

	s.logger.Info("ingestion run complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("ingested", report.Ingested),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("chunks", report.Chunks),
		zap.Duration("duration", report.Duration))

	s.mu.Lock()
	s.lastReport = &report
	s.mu.Unlock()

	return report, nil
}

// processDocument runs the full pipeline for one document. The ledger
// record is returned only after every chunk has been embedded and stored;
// any failure leaves the previous record in place so the next run retries.
func (s *Service) processDocument(ctx context.Context, doc domain.SourceInfo) (ledger.Record, error) {
	data, err := s.source.Read(ctx, doc.Name)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("read: %w", err)
	}

	extracted, err := s.extractor.Extract(doc.Name, data)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("extract: %w", err)
	}

	var chunks []string
	for chunk := range s.segmenter.Chunks(extracted.Text) {
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return ledger.Record{}, errNoContent
	}

	ingestedAt := time.Now().UTC()

	// Embed in batches, but store only once the whole document embedded
	// cleanly. No chunk reaches the index without a vector.
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch, err := s.embedder.EmbedMany(ctx, chunks[start:end])
		if err != nil {
			return ledger.Record{}, fmt.Errorf("embed chunks %d..%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}

	written, err := s.store.UpsertChunks(ctx, doc.Name, chunks, vectors, ingestedAt)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("store chunks: %w", err)
	}

	return ledger.Record{
		Size:         doc.Size,
		LastModified: doc.ModTime,
		IngestedAt:   ingestedAt,
		ChunkCount:   written,
		PageCount:    extracted.PageCount,
	}, nil
}
