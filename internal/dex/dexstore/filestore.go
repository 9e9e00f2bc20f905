package dexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pokedexlab/dexter/internal/dex"
)

// Compile-time assertion that FileStore satisfies the Store interface.
var _ Store = (*FileStore)(nil)

// FileStore is the JSON-snapshot implementation of [Store]. The whole
// snapshot is decoded once at construction; lookups afterwards are in-memory
// and read-only, so no locking is needed.
type FileStore struct {
	entries []cacheEntry
	byName  map[string]int // lower-cased name → index into entries
}

// LoadFile reads and parses the JSON snapshot at path.
func LoadFile(path string) (*FileStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dexstore: open snapshot %q: %w", path, err)
	}
	defer f.Close()

	s, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("dexstore: parse snapshot %q: %w", path, err)
	}
	return s, nil
}

// LoadFromReader decodes a JSON snapshot from r. The snapshot is a top-level
// array of creature entries. Useful in tests where snapshots are built from
// string literals.
func LoadFromReader(r io.Reader) (*FileStore, error) {
	var entries []cacheEntry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("dexstore: decode snapshot json: %w", err)
	}

	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		if e.Nome == "" {
			return nil, fmt.Errorf("dexstore: snapshot entry %d has no name", i)
		}
		byName[strings.ToLower(e.Nome)] = i
	}

	return &FileStore{entries: entries, byName: byName}, nil
}

// Lookup implements [Store.Lookup].
func (s *FileStore) Lookup(_ context.Context, name string) (dex.Record, error) {
	i, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return dex.Record{}, ErrNotFound
	}
	return s.entries[i].toRecord(), nil
}

// Names implements [Store.Names]. Names are returned in snapshot order.
func (s *FileStore) Names(_ context.Context) ([]string, error) {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = strings.ToLower(e.Nome)
	}
	return names, nil
}

// Len returns the number of cached creatures.
func (s *FileStore) Len() int {
	return len(s.entries)
}
