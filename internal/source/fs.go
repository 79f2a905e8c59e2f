// Package source enumerates and reads documents from a corpus directory.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// FS is a document source over a flat filesystem directory. Document names
// are base filenames; subdirectories and dotfiles are ignored.
type FS struct {
	dir        string
	extensions map[string]struct{}
}

// NewFS creates a filesystem source. extensions restricts discovery to the
// given lowercase suffixes (e.g. ".pdf", ".txt", ".md"); empty means all files.
func NewFS(dir string, extensions []string) *FS {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &FS{dir: filepath.Clean(dir), extensions: exts}
}

// List enumerates candidate documents with their size/mtime fingerprints,
// sorted by name for deterministic scan order.
func (f *FS) List(_ context.Context) ([]domain.SourceInfo, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read documents dir %s: %w", f.dir, err)
	}

	infos := make([]domain.SourceInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !f.accepts(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		infos = append(infos, domain.SourceInfo{
			Name:    e.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Read returns the raw bytes of a document by name.
func (f *FS) Read(_ context.Context, name string) ([]byte, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid document name %q: %w", name, domain.ErrDocumentNotFound)
	}
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Check verifies the documents directory exists and is a directory.
// Used by health checks.
func (f *FS) Check(_ context.Context) error {
	fi, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("stat documents dir %s: %w", f.dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("documents path %s is not a directory", f.dir)
	}
	return nil
}

func (f *FS) accepts(name string) bool {
	if len(f.extensions) == 0 {
		return true
	}
	_, ok := f.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
