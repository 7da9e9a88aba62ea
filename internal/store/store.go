package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

const (
	filePrefix = "cache_"
	entryExt   = ".json"
	lockExt    = ".lock"
	tempExt    = ".tmp"

	DefaultLockTimeout   = 5 * time.Second
	DefaultSweepAttempts = 5
	DefaultSweepBackoff  = time.Second
)

// Options configures a Store
type Options struct {
	Dir           string
	LockTimeout   time.Duration
	SweepAttempts int
	SweepBackoff  time.Duration
	Clock         domain.Clock
	Logger        *slog.Logger
}

// Store keeps one JSON file per cache key in a directory.
// Every access to an entry file happens under that key's file lock,
// so separate processes sharing the directory never see torn data.
type Store struct {
	dir           string
	lockTimeout   time.Duration
	sweepAttempts int
	sweepBackoff  time.Duration
	clock         domain.Clock
	logger        *slog.Logger
}

var _ domain.EntryStore = (*Store)(nil)

// New creates the cache directory if needed and returns a Store over it
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("store: cache directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.SweepAttempts <= 0 {
		opts.SweepAttempts = DefaultSweepAttempts
	}
	if opts.SweepBackoff < 0 {
		opts.SweepBackoff = 0
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Store{
		dir:           opts.Dir,
		lockTimeout:   opts.LockTimeout,
		sweepAttempts: opts.SweepAttempts,
		sweepBackoff:  opts.SweepBackoff,
		clock:         opts.Clock,
		logger:        opts.Logger.With("component", "store"),
	}, nil
}

// Dir returns the cache directory
func (s *Store) Dir() string { return s.dir }

// KeyFor derives the cache key for (user, server, url)
func (s *Store) KeyFor(userID, server, url string) domain.CacheKey {
	return KeyFor(userID, server, url)
}

// KeyFor hashes user, server and url into a fixed-length hex key
func KeyFor(userID, server, url string) domain.CacheKey {
	sum := sha256.Sum256([]byte(userID + "|" + server + "|" + url))
	return domain.CacheKey(hex.EncodeToString(sum[:]))
}

// Path returns the entry file for a key
func (s *Store) Path(key domain.CacheKey) string {
	return filepath.Join(s.dir, filePrefix+string(key)+entryExt)
}

func (s *Store) lockPath(key domain.CacheKey) string {
	return filepath.Join(s.dir, filePrefix+string(key)+lockExt)
}

// validKey rejects anything that is not a KeyFor digest so a key can never
// escape the cache directory
func validKey(key domain.CacheKey) bool {
	if len(key) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(string(key))
	return err == nil
}

// Read loads the entry for key. Missing and corrupt entries both yield
// ErrNotFound; a corrupt one additionally matches ErrCorruptEntry.
func (s *Store) Read(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: invalid key %q", domain.ErrNotFound, key)
	}

	var entry *domain.CacheEntry
	err := s.withLock(ctx, key, func() error {
		var err error
		entry, err = s.readFile(s.Path(key))
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrCorruptEntry) {
			s.logger.Warn("corrupt cache entry", "key", key, "error", err)
		}
		return nil, err
	}
	return entry, nil
}

// readFile decodes one entry file. The caller holds the key lock.
func (s *Store) readFile(path string) (*domain.CacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return entry, nil
}

// Write replaces the entry for key atomically. Entries without items are refused.
func (s *Store) Write(ctx context.Context, key domain.CacheKey, entry *domain.CacheEntry) error {
	if !validKey(key) {
		return fmt.Errorf("store: invalid key %q", key)
	}
	if entry == nil || len(entry.Items) == 0 {
		return domain.ErrEmptyEntry
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("refusing to persist entry: %w", err)
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	return s.withLock(ctx, key, func() error {
		return writeFileAtomic(s.dir, s.Path(key), data)
	})
}

// Invalidate deletes the entry for key. A missing entry is not an error.
func (s *Store) Invalidate(ctx context.Context, key domain.CacheKey) error {
	if !validKey(key) {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return s.withLock(ctx, key, func() error {
		return removeIfExists(s.Path(key))
	})
}

// writeFileAtomic writes data to a temp file in dir, syncs it and renames it over path
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+tempExt)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
