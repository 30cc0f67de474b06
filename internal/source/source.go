// Package source loads resolver inputs from the external section/mention/
// token index. Two providers: JSON files exported by the ingestion
// pipeline, and the index service over HTTP.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fredpottier/relato/internal/model"
)

// Provider supplies complete per-document inputs. Implementations are
// synchronous and read-only; retry logic belongs to the index service, not
// here.
type Provider interface {
	Document(ctx context.Context, id string) (*model.Document, error)
}

// FileProvider reads document exports from JSON files.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider rooted at the given directory.
// Document ids map to "<dir>/<id>.json".
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Document loads one document export by id.
func (p *FileProvider) Document(_ context.Context, id string) (*model.Document, error) {
	return LoadFile(filepath.Join(p.dir, id+".json"))
}

// List returns the document ids available in the provider's directory,
// sorted.
func (p *FileProvider) List() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadFile parses one document export.
func LoadFile(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return &doc, nil
}
