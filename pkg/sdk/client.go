package docqa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/db"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/ledger"
	chunksrepo "github.com/kailas-cloud/docqa/internal/repository/chunks"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	"github.com/kailas-cloud/docqa/internal/segment"
	"github.com/kailas-cloud/docqa/internal/source"
	askuc "github.com/kailas-cloud/docqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal service interfaces, substitutable in tests.
type askUseCase interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
	Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error)
}

type ingestUseCase interface {
	Run(ctx context.Context) (domain.IngestReport, error)
	Running() bool
	LastReport() *domain.IngestReport
}

// Source identifies a document that contributed to an answer.
type Source struct {
	Name       string
	Score      float64
	ChunkIndex int
}

// Answer is a generated response with the documents it drew from.
type Answer struct {
	Text       string
	Sources    []Source
	MatchCount int
}

// Retrieval is the assembled context for a question without generation.
type Retrieval struct {
	Context    string
	Sources    []Source
	MatchCount int
}

// Report summarizes one ingestion run.
type Report struct {
	Scanned  int
	Ingested int
	Skipped  int
	Failed   int
	Chunks   int
	Duration time.Duration
}

// Client is the embedded document-QA pipeline.
type Client struct {
	store     db.Store
	askSvc    askUseCase
	ingestSvc ingestUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	cfg.applyDefaults()

	if len(cfg.addrs) == 0 {
		return nil, errors.New("docqa: database address required (use WithRedis)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("docqa: embedder required (use WithEmbedder)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("docqa: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docqa: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	client, err := wireClient(ctx, store, cfg, obs, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return client, nil
}

func wireClient(
	ctx context.Context, store db.Store, cfg *clientConfig, obs *observer, logger *zap.Logger,
) (*Client, error) {
	segmenter, err := segment.New(cfg.chunkSize, cfg.chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("docqa: %w", err)
	}

	var embedder domain.Embedder = &embedderAdapter{inner: cfg.embedder}
	embedder = embcache.New(embedder, store, cfg.keyPrefix, nil, logger)

	var generator domain.Generator = &noopGenerator{}
	if cfg.generator != nil {
		generator = cfg.generator
	}

	chunkRepo := chunksrepo.New(store, chunksrepo.Config{
		KeyPrefix:       cfg.keyPrefix,
		BatchSize:       cfg.batchSize,
		HNSWM:           cfg.hnswM,
		HNSWEFConstruct: cfg.hnswEFConstruct,
	})
	if err := chunkRepo.EnsureIndex(ctx, cfg.vectorDimensions); err != nil {
		return nil, fmt.Errorf("docqa: ensure index: %w", err)
	}

	docs := source.NewFS(cfg.documentsDir, cfg.extensions)
	ingestSvc := ingestuc.New(
		docs, extract.New(), segmenter, embedder, chunkRepo,
		ledger.New(cfg.ledgerPath, logger),
		ingestuc.Config{
			BatchSize:   cfg.batchSize,
			Concurrency: cfg.concurrency,
		},
		logger,
	)
	askSvc := askuc.New(embedder, chunkRepo, generator, askuc.Config{
		TopK:           cfg.topK,
		MaxQuestionLen: cfg.maxQuestionLen,
	}, logger)
	healthSvc := healthuc.New(store, nil, docs)

	return &Client{
		store:     store,
		askSvc:    askSvc,
		ingestSvc: ingestSvc,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ask answers a question grounded in the indexed documents.
func (c *Client) Ask(ctx context.Context, question string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	answer, err := c.askSvc.Ask(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Text:       answer.Text,
		Sources:    toSources(answer.Sources),
		MatchCount: answer.MatchCount,
	}, nil
}

// Retrieve returns the assembled context for a question without generating
// an answer.
func (c *Client) Retrieve(ctx context.Context, question string) (_ Retrieval, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	result, err := c.askSvc.Retrieve(ctx, question)
	if err != nil {
		return Retrieval{}, err
	}
	return Retrieval{
		Context:    result.Context,
		Sources:    toSources(result.Sources),
		MatchCount: result.MatchCount,
	}, nil
}

// Ingest scans the documents directory and indexes new or changed documents.
// It blocks until the run completes. A run already in progress yields
// ErrIngestRunning.
func (c *Client) Ingest(ctx context.Context) (_ Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	report, err := c.ingestSvc.Run(ctx)
	if err != nil {
		return Report{}, err
	}
	return toReport(report), nil
}

// IngestStatus reports whether a run is in progress and the last completed
// run, if any.
func (c *Client) IngestStatus() (running bool, last *Report) {
	running = c.ingestSvc.Running()
	if rep := c.ingestSvc.LastReport(); rep != nil {
		r := toReport(*rep)
		last = &r
	}
	return running, last
}

func toReport(r domain.IngestReport) Report {
	return Report{
		Scanned:  r.Scanned,
		Ingested: r.Ingested,
		Skipped:  r.Skipped,
		Failed:   r.Failed,
		Chunks:   r.Chunks,
		Duration: r.Duration,
	}
}

func toSources(refs []domain.SourceRef) []Source {
	sources := make([]Source, len(refs))
	for i, ref := range refs {
		sources[i] = Source{
			Name:       ref.Name,
			Score:      ref.Score,
			ChunkIndex: ref.ChunkIndex,
		}
	}
	return sources
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if be, ok := a.inner.(BatchEmbedder); ok {
		vectors, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch embed: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("batch embed: got %d vectors for %d texts", len(vectors), len(texts))
		}
		return vectors, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		r, err := a.inner.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed item %d: %w", i, err)
		}
		vectors[i] = r.Embedding
	}
	return vectors, nil
}

// noopGenerator returns an error on Generate (used when no generator configured).
type noopGenerator struct{}

func (noopGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("%w: generator not configured (use WithGenerator)", domain.ErrGeneration)
}
