// Package filecache stores collection metadata records on the local
// filesystem, one directory per document fingerprint.
//
// Layout:
//
//	<root>/active.json
//	<root>/<fingerprint>/metadata.json
//	<root>/<fingerprint>/...backend files
package filecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CacheStore = (*Store)(nil)

const (
	metadataFile = "metadata.json"
	activeFile   = "active.json"
)

// Store is a directory-backed cache store.
type Store struct {
	mu   sync.Mutex
	root string
}

// New creates a cache store rooted at root.
// If root is empty, defaults to ~/.paperqa/cache.
func New(root string) (*Store, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		root = filepath.Join(home, ".paperqa", "cache")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the cache directory for a fingerprint.
func (s *Store) Dir(fingerprint string) string {
	return filepath.Join(s.root, fingerprint)
}

// Lookup reads the metadata record for a fingerprint.
func (s *Store) Lookup(fingerprint string) domain.CacheLookup {
	data, err := os.ReadFile(filepath.Join(s.Dir(fingerprint), metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CacheMiss(domain.MissAbsent, nil)
		}
		return domain.CacheMiss(domain.MissCorrupt, fmt.Errorf("%w: read %s: %w", domain.ErrCacheCorruption, fingerprint, err))
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.CacheMiss(domain.MissCorrupt, fmt.Errorf("%w: decode %s: %w", domain.ErrCacheCorruption, fingerprint, err))
	}
	if entry.FormatVersion != domain.CacheFormatVersion {
		return domain.CacheMiss(domain.MissVersion, fmt.Errorf("format %q, want %q", entry.FormatVersion, domain.CacheFormatVersion))
	}
	return domain.CacheHit(&entry)
}

// Write stores the metadata record for a fingerprint.
// The record is written to a temporary file and renamed into place.
func (s *Store) Write(fingerprint string, entry *domain.CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: nil cache entry", domain.ErrInvalidInput)
	}
	if entry.FormatVersion == "" {
		entry.FormatVersion = domain.CacheFormatVersion
	}

	dir := s.Dir(fingerprint)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, metadataFile), entry)
}

// Remove deletes the whole cache directory of a fingerprint.
func (s *Store) Remove(fingerprint string) error {
	if fingerprint == "" {
		return fmt.Errorf("%w: empty fingerprint", domain.ErrInvalidInput)
	}
	if err := os.RemoveAll(s.Dir(fingerprint)); err != nil {
		return fmt.Errorf("remove cache dir: %w", err)
	}
	return nil
}

// LoadActive returns the active pointer, or nil when none is set.
func (s *Store) LoadActive() (*domain.ActivePointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.root, activeFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read active pointer: %w", err)
	}

	var ptr domain.ActivePointer
	if err := json.Unmarshal(data, &ptr); err != nil {
		return nil, fmt.Errorf("%w: active pointer: %w", domain.ErrCacheCorruption, err)
	}
	if ptr.Fingerprint == "" {
		return nil, nil
	}
	return &ptr, nil
}

// SaveActive records the active collection.
func (s *Store) SaveActive(ptr domain.ActivePointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(s.root, activeFile), ptr)
}

// ClearActive removes the active pointer.
func (s *Store) ClearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.root, activeFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear active pointer: %w", err)
	}
	return nil
}

// writeJSON writes v next to path and renames it over path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
