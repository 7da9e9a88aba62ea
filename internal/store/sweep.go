package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

// Stats describes what is currently on disk
type Stats struct {
	Entries    int
	Unreadable int
	Bytes      int64
	Items      int
	Oldest     time.Time // least recent LastAccessedAt
	Newest     time.Time // most recent LastAccessedAt
}

// entryFiles lists the keys of all entry files in the cache directory
func (s *Store) entryFiles() ([]domain.CacheKey, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+entryExt))
	if err != nil {
		return nil, err
	}
	keys := make([]domain.CacheKey, 0, len(matches))
	for _, path := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), filePrefix), entryExt)
		key := domain.CacheKey(name)
		if validKey(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Sweep removes entries not accessed within maxAge and entries that stay
// unreadable after the configured number of attempts. Entries whose lock
// stays busy for every attempt are in use: they are counted in Busy and left
// for the next pass, so the maxAge bound holds only for entries that could
// be locked.
// Lock files are never removed here; another process may be waiting on one.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) (domain.SweepResult, error) {
	start := s.clock.Now()
	var res domain.SweepResult

	keys, err := s.entryFiles()
	if err != nil {
		return res, fmt.Errorf("list cache entries: %w", err)
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			res.Duration = s.clock.Now().Sub(start)
			return res, err
		}
		res.Checked++

		entry, err := s.readWithRetry(ctx, key)
		switch {
		case err == nil:
			age := s.clock.Now().Sub(entry.LastAccessedAt)
			if age <= maxAge {
				continue
			}
			if err := s.Invalidate(ctx, key); err != nil {
				s.logger.Warn("failed to remove expired entry", "key", key, "error", err)
				continue
			}
			res.Expired++
			s.logger.Debug("removed expired entry", "key", key, "url", entry.URL, "age", age)

		case errors.Is(err, domain.ErrLockTimeout):
			res.Busy++
			s.logger.Debug("entry busy, skipping", "key", key)

		case isGone(err):
			// Removed by someone else since the listing

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			res.Duration = s.clock.Now().Sub(start)
			return res, err

		default:
			if err := s.Invalidate(ctx, key); err != nil {
				s.logger.Warn("failed to remove unreadable entry", "key", key, "error", err)
				continue
			}
			res.Unreadable++
			s.logger.Info("removed unreadable entry", "key", key, "error", err)
		}
	}

	s.removeStaleTemps(maxAge)
	res.Duration = s.clock.Now().Sub(start)
	return res, nil
}

// readWithRetry reads an entry, retrying any failure except a vanished
// file with a fixed backoff
func (s *Store) readWithRetry(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	var lastErr error
	for attempt := 1; attempt <= s.sweepAttempts; attempt++ {
		entry, err := s.Read(ctx, key)
		if err == nil {
			return entry, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isGone(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("sweep read failed", "key", key, "attempt", attempt, "error", err)

		if attempt < s.sweepAttempts && s.sweepBackoff > 0 {
			select {
			case <-time.After(s.sweepBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// isGone reports a plain missing file, as opposed to a corrupt one
func isGone(err error) bool {
	return errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrCorruptEntry)
}

// removeStaleTemps deletes temp files left behind by writers that died mid-write
func (s *Store) removeStaleTemps(maxAge time.Duration) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+tempExt))
	if err != nil {
		return
	}
	now := s.clock.Now()
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if err := removeIfExists(path); err != nil {
			s.logger.Warn("failed to remove stale temp file", "path", path, "error", err)
		}
	}
}

// Clear removes every cache artifact in the directory unconditionally and
// returns the number of entries removed
func (s *Store) Clear() (int, error) {
	var removed int
	var errs []error

	for _, pattern := range []string{entryExt, lockExt, tempExt} {
		matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+pattern))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, path := range matches {
			if err := removeIfExists(path); err != nil {
				errs = append(errs, err)
				continue
			}
			if pattern == entryExt {
				removed++
			}
		}
	}

	s.logger.Info("cache cleared", "entries", removed)
	return removed, errors.Join(errs...)
}

// Stats reads every entry and reports totals
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	keys, err := s.entryFiles()
	if err != nil {
		return st, fmt.Errorf("list cache entries: %w", err)
	}

	for _, key := range keys {
		if info, err := os.Stat(s.Path(key)); err == nil {
			st.Bytes += info.Size()
		}

		entry, err := s.Read(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			st.Unreadable++
			continue
		}

		st.Entries++
		st.Items += len(entry.Items)
		if st.Oldest.IsZero() || entry.LastAccessedAt.Before(st.Oldest) {
			st.Oldest = entry.LastAccessedAt
		}
		if entry.LastAccessedAt.After(st.Newest) {
			st.Newest = entry.LastAccessedAt
		}
	}
	return st, nil
}
