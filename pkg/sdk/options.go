package docqa

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder  Embedder
	generator Generator

	documentsDir string
	extensions   []string
	ledgerPath   string

	chunkSize    int
	chunkOverlap int
	chunkingSet  bool
	batchSize    int
	concurrency  int

	keyPrefix        string
	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int

	topK           int
	maxQuestionLen int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the answer generation provider.
// Without it Retrieve works and Ask returns ErrGeneration.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithDocumentsDir sets the directory scanned for documents.
// Default: "documents".
func WithDocumentsDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentsDir = dir
	})
}

// WithExtensions restricts ingestion to the given file extensions
// (e.g. ".pdf", ".txt", ".md"). Default: .pdf, .txt, .md.
func WithExtensions(exts ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.extensions = exts
	})
}

// WithLedgerPath sets where the ingestion ledger file is written.
// Default: "data/ledger.json".
func WithLedgerPath(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.ledgerPath = path
	})
}

// WithChunking sets the segmentation window and overlap in runes.
// An overlap of 0 is honored. Defaults: size=1000, overlap=200.
func WithChunking(size, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
		c.chunkingSet = true
	})
}

// WithVectorDimensions sets the embedding dimension for the index.
// Default: 1536.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithKeyPrefix namespaces all keys in the store. Default: "docqa:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithTopK sets how many chunks a question retrieves. Default: 5.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

func (c *clientConfig) applyDefaults() {
	if c.documentsDir == "" {
		c.documentsDir = "documents"
	}
	if len(c.extensions) == 0 {
		c.extensions = []string{".pdf", ".txt", ".md"}
	}
	if c.ledgerPath == "" {
		c.ledgerPath = "data/ledger.json"
	}
	if c.chunkSize <= 0 {
		c.chunkSize = 1000
	}
	if !c.chunkingSet {
		c.chunkOverlap = 200
	}
	if c.batchSize <= 0 {
		c.batchSize = 20
	}
	if c.concurrency <= 0 {
		c.concurrency = 2
	}
	if c.keyPrefix == "" {
		c.keyPrefix = "docqa:"
	}
	if c.vectorDimensions <= 0 {
		c.vectorDimensions = 1536
	}
	if c.topK <= 0 {
		c.topK = 5
	}
	if c.maxQuestionLen <= 0 {
		c.maxQuestionLen = 2000
	}
}
