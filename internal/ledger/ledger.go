// Package ledger persists the ingestion manifest: which documents have been
// indexed and with what size/mtime fingerprint. The manifest is a JSON file
// replaced atomically on save so readers never observe a half-written state.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Record is the per-document ledger entry, written only after every chunk of
// the document has been upserted.
type Record struct {
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	IngestedAt   time.Time `json:"ingested_at"`
	ChunkCount   int       `json:"chunk_count"`
	PageCount    int       `json:"page_count"`
}

// Manifest maps document name to its ledger record.
type Manifest map[string]Record

// Unchanged reports whether a record exists for name and both size and mtime
// exactly match. This is a coarse change signal: an edit that preserves size
// and reported mtime is invisible to ingestion.
func (m Manifest) Unchanged(name string, size int64, mtime time.Time) bool {
	rec, ok := m[name]
	if !ok {
		return false
	}
	return rec.Size == size && rec.LastModified.Equal(mtime)
}

// Ledger reads and writes the manifest file.
type Ledger struct {
	path   string
	logger *zap.Logger
}

// New creates a ledger backed by the given file path.
func New(path string, logger *zap.Logger) *Ledger {
	return &Ledger{path: filepath.Clean(path), logger: logger}
}

// Load reads the persisted manifest. A missing or unreadable file yields an
// empty manifest, never an error: corruption means "start fresh".
func (l *Ledger) Load() Manifest {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("Failed to read ledger, starting fresh",
				zap.String("path", l.path), zap.Error(err))
		}
		return Manifest{}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		l.logger.Warn("Corrupt ledger, starting fresh",
			zap.String("path", l.path), zap.Error(err))
		return Manifest{}
	}
	if m == nil {
		m = Manifest{}
	}
	return m
}

// Save persists the manifest via write-new-then-replace.
func (l *Ledger) Save(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w: %w", domain.ErrLedgerWrite, err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create ledger dir %s: %w: %w", dir, domain.ErrLedgerWrite, err)
		}
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write ledger %s: %w: %w", tmp, domain.ErrLedgerWrite, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger %s: %w: %w", l.path, domain.ErrLedgerWrite, err)
	}
	return nil
}
