// Package incremental keeps the image derivative cache that lets rebuilds skip
// regenerating derivatives whose inputs have not changed.
package incremental

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/metrics"
)

// SnapshotName is the cache file written at the output root.
const SnapshotName = ".snapshot"

// Key identifies one derivative: absolute source and destination paths plus
// the serialized generation options.
type Key struct {
	Source  string
	Dest    string
	Options string
}

// String renders the key as stored in the snapshot.
func (k Key) String() string { return k.Source + "|" + k.Dest + "|" + k.Options }

// Record is the state captured after a derivative was generated.
// Modification times are Unix nanoseconds.
type Record struct {
	SourceMTime int64  `json:"source_mtime"`
	DestMTime   int64  `json:"dest_mtime"`
	Options     string `json:"options"`
}

// Store is the derivative cache shared by all workers of a build.
type Store struct {
	mu       sync.RWMutex
	records  map[string]Record
	recorder metrics.Recorder

	hits   atomic.Int64
	misses atomic.Int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: map[string]Record{}, recorder: metrics.NoopRecorder{}}
}

// WithRecorder routes hit and miss counts to r.
func (s *Store) WithRecorder(r metrics.Recorder) *Store {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Lookup returns the record stored under k.
func (s *Store) Lookup(k Key) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[k.String()]
	return r, ok
}

// Put stores r under k.
func (s *Store) Put(k Key, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[k.String()] = r
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Hits returns the number of cache hits since the store was created.
func (s *Store) Hits() int64 { return s.hits.Load() }

// Misses returns the number of cache misses since the store was created.
func (s *Store) Misses() int64 { return s.misses.Load() }

func (s *Store) countHit() {
	s.hits.Add(1)
	s.recorder.IncCacheLookup(metrics.CacheHit)
}

func (s *Store) countMiss() {
	s.misses.Add(1)
	s.recorder.IncCacheLookup(metrics.CacheMiss)
}

// Load reads a snapshot into a new store. A missing or malformed snapshot
// yields an empty store.
func Load(path string) *Store {
	s := NewStore()
	// #nosec G304 -- snapshot lives at the output root
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Snapshot unreadable, starting with empty cache", logfields.Path(path), logfields.Error(err))
		}
		return s
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("Snapshot malformed, starting with empty cache", logfields.Path(path), logfields.Error(err))
		return s
	}
	for k, r := range records {
		s.records[k] = r
	}
	slog.Debug("Loaded snapshot", logfields.Path(path), logfields.Count(len(records)))
	return s
}

// Save writes the store to path as JSON with sorted keys. The file is
// replaced atomically.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename snapshot: %w", err)
	}
	return nil
}
