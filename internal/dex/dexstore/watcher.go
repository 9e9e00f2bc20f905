package dexstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pokedexlab/dexter/internal/dex"
)

// WatchedStore serves lookups from a JSON snapshot file and reloads it when
// the file changes on disk. It uses polling (not fsnotify) to keep
// dependencies minimal. Lookups keep answering from the previous snapshot
// while a broken edit sits on disk.
//
// WatchedStore implements [Store] and is safe for concurrent use.
type WatchedStore struct {
	path     string
	interval time.Duration

	mu       sync.RWMutex
	current  *FileStore
	done     chan struct{}
	stopOnce sync.Once

	// last known file state for change detection
	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

var _ Store = (*WatchedStore)(nil)

// WatcherOption configures a [WatchedStore].
type WatcherOption func(*WatchedStore)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *WatchedStore) {
		if d > 0 {
			w.interval = d
		}
	}
}

// Watch loads the snapshot at path and starts polling it for changes in a
// background goroutine. Call [WatchedStore.Stop] to end the polling.
func Watch(path string, opts ...WatcherOption) (*WatchedStore, error) {
	w := &WatchedStore{
		path:     path,
		interval: 5 * time.Second,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fs, hash, mtime, err := w.loadAndHash()
	if err != nil {
		return nil, fmt.Errorf("dexstore: watch initial load: %w", err)
	}
	w.current = fs
	w.lastHash = hash
	w.lastMtime = mtime

	go w.poll()
	return w, nil
}

// Lookup implements [Store] against the current snapshot.
func (w *WatchedStore) Lookup(ctx context.Context, name string) (dex.Record, error) {
	return w.snapshot().Lookup(ctx, name)
}

// Names implements [Store] against the current snapshot.
func (w *WatchedStore) Names(ctx context.Context) ([]string, error) {
	return w.snapshot().Names(ctx)
}

// Len returns the record count of the current snapshot.
func (w *WatchedStore) Len() int {
	return w.snapshot().Len()
}

// snapshot returns the most recently loaded valid store.
func (w *WatchedStore) snapshot() *FileStore {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop stops the file watcher.
func (w *WatchedStore) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// poll runs in a background goroutine, checking the snapshot periodically.
func (w *WatchedStore) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check reads the snapshot file and, if it has changed and parses, swaps the
// current store.
func (w *WatchedStore) check() {
	// Quick mtime check first to avoid hashing unchanged files.
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("cache watcher: cannot stat snapshot", "path", w.path, "err", err)
		return
	}

	w.mu.RLock()
	mtime := w.lastMtime
	w.mu.RUnlock()

	if info.ModTime().Equal(mtime) {
		return
	}

	fs, hash, newMtime, err := w.loadAndHash()
	if err != nil {
		slog.Warn("cache watcher: failed to load snapshot, keeping previous",
			"path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if hash == w.lastHash {
		// File was touched but content is identical.
		w.lastMtime = newMtime
		w.mu.Unlock()
		return
	}
	w.current = fs
	w.lastHash = hash
	w.lastMtime = newMtime
	w.mu.Unlock()

	slog.Info("cache watcher: snapshot reloaded", "path", w.path, "records", fs.Len())
}

// loadAndHash reads the snapshot file, parses it, and returns the store
// alongside the file's SHA-256 hash and modification time. If the snapshot
// is invalid the caller keeps the old one.
func (w *WatchedStore) loadAndHash() (*FileStore, [sha256.Size]byte, time.Time, error) {
	var zeroHash [sha256.Size]byte

	f, err := os.Open(w.path)
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}
	hash := sha256.Sum256(data)

	fs, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}
	return fs, hash, info.ModTime(), nil
}
