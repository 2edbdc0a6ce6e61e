package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blogpipe/internal/core"
)

// ErrNotFound is returned when a requested document does not exist on disk.
var ErrNotFound = errors.New("document not found")

// Store reads and writes the pipeline's flat JSON documents.
// Every save is a whole-document rewrite.
type Store struct {
	rawPath          string
	intelligencePath string
	cachePath        string
}

// NewStore creates a store for the given document paths
func NewStore(rawPath, intelligencePath, cachePath string) *Store {
	return &Store{
		rawPath:          rawPath,
		intelligencePath: intelligencePath,
		cachePath:        cachePath,
	}
}

// LoadRaw reads the raw extraction document
func (s *Store) LoadRaw() (*core.RawDocument, error) {
	var doc core.RawDocument
	if err := readJSON(s.rawPath, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveRaw writes the raw extraction document
func (s *Store) SaveRaw(doc *core.RawDocument) error {
	doc.TotalArticles = len(doc.Articles)
	return writeJSON(s.rawPath, doc)
}

// LoadIntelligence reads the intelligence document
func (s *Store) LoadIntelligence() (*core.IntelligenceDocument, error) {
	var doc core.IntelligenceDocument
	if err := readJSON(s.intelligencePath, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadIntelligenceOrEmpty returns an empty document when none exists yet
func (s *Store) LoadIntelligenceOrEmpty() (*core.IntelligenceDocument, error) {
	doc, err := s.LoadIntelligence()
	if errors.Is(err, ErrNotFound) {
		return &core.IntelligenceDocument{}, nil
	}
	return doc, err
}

// SaveIntelligence writes the intelligence document
func (s *Store) SaveIntelligence(doc *core.IntelligenceDocument) error {
	doc.TotalArticles = len(doc.Articles)
	return writeJSON(s.intelligencePath, doc)
}

// LoadCache reads the migration cache, returning an empty cache when missing
func (s *Store) LoadCache() (*core.MigrationCache, error) {
	var cache core.MigrationCache
	err := readJSON(s.cachePath, &cache)
	if errors.Is(err, ErrNotFound) {
		return &core.MigrationCache{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cache, nil
}

// SaveCache writes the migration cache
func (s *Store) SaveCache(cache *core.MigrationCache) error {
	return writeJSON(s.cachePath, cache)
}

// Paths returns the configured document locations
func (s *Store) Paths() (raw, intelligence, cache string) {
	return s.rawPath, s.intelligencePath, s.cachePath
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // umlauts and quotes stay readable in the files
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
