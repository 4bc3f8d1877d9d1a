package cache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SnapshotKey is the cache key of the last good dashboard snapshot.
const SnapshotKey = "dashboard"

// Store is a JSON file cache with per-read TTL, written by the headless
// poller and read by one-shot renders. Files live in a flat directory:
//
//	~/.cache/sdn-pulse/
//	  dashboard.json
//	  health.json
type Store struct {
	dir    string
	logger *slog.Logger
}

// Meta holds last update times and file sizes of every cached key.
type Meta struct {
	LastUpdate map[string]time.Time `json:"last_update"`
	Sizes      map[string]int64     `json:"sizes"`
}

// NewStore creates a cache store at dir, creating it with 0700 permissions.
// A nil logger discards output.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads a cached value and whether it is younger than ttl.
// A missing key yields nil, false, nil. A stale entry is still returned.
// Unparsable files are removed and treated as a miss.
func (s *Store) Get(key string, ttl time.Duration) ([]byte, bool, error) {
	path := s.keyPath(key)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: stat %s: %w", key, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("cache: read %s: %w", key, err)
	}

	if !json.Valid(data) {
		s.logger.Warn("cache: removing corrupted entry", slog.String("key", key))
		_ = os.Remove(path)
		return nil, false, nil
	}

	fresh := time.Since(info.ModTime()) < ttl
	return data, fresh, nil
}

// Set writes a value atomically: temp file, then rename.
func (s *Store) Set(key string, data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+key+"-*.json")
	if err != nil {
		return fmt.Errorf("cache: create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: chmod temp for %s: %w", key, err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: write temp for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.keyPath(key)); err != nil {
		return fmt.Errorf("cache: rename temp for %s: %w", key, err)
	}

	success = true
	return nil
}

// GetTyped reads and decodes a cached value into T. Entries that do not
// decode are removed and reported as a miss.
func GetTyped[T any](s *Store, key string, ttl time.Duration) (*T, bool, error) {
	raw, fresh, err := s.Get(key, ttl)
	if err != nil || raw == nil {
		return nil, false, err
	}

	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Warn("cache: removing entry with unmarshal error",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		_ = os.Remove(s.keyPath(key))
		return nil, false, nil
	}
	return &result, fresh, nil
}

// SaveSnapshot caches a dashboard snapshot. Nil snapshots are not written.
func (s *Store) SaveSnapshot(snap *collectors.Snapshot) error {
	if snap == nil {
		return nil
	}
	return s.Set(SnapshotKey, snap)
}

// LoadSnapshot returns the cached dashboard snapshot, or nil when none is
// cached.
func (s *Store) LoadSnapshot(ttl time.Duration) (*collectors.Snapshot, bool, error) {
	return GetTyped[collectors.Snapshot](s, SnapshotKey, ttl)
}

// Age returns how old an entry is, or 0 when it does not exist.
func (s *Store) Age(key string) time.Duration {
	info, err := os.Stat(s.keyPath(key))
	if err != nil {
		return 0
	}
	return time.Since(info.ModTime())
}

// Keys returns every cached key.
func (s *Store) Keys() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var keys []string
	for _, e := range entries {
		if key, ok := entryKey(e); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Meta returns last update times and file sizes for every cached key.
func (s *Store) Meta() (*Meta, error) {
	m := &Meta{
		LastUpdate: make(map[string]time.Time),
		Sizes:      make(map[string]int64),
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("cache: meta read dir: %w", err)
	}

	for _, e := range entries {
		key, ok := entryKey(e)
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		m.LastUpdate[key] = info.ModTime()
		m.Sizes[key] = info.Size()
	}
	return m, nil
}

func entryKey(e os.DirEntry) (string, bool) {
	name := e.Name()
	if e.IsDir() || strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}
