package domain

import (
	"context"
	"time"
)

// EntryStore persists cache entries, one per key, on durable storage.
// It owns the entry lifecycle; callers never touch the backing files.
type EntryStore interface {
	// KeyFor derives the cache key for (user, server, url)
	KeyFor(userID, server, url string) CacheKey

	// Read returns ErrNotFound for missing or corrupt entries and ErrLockTimeout
	// when the per-key lock could not be acquired
	Read(ctx context.Context, key CacheKey) (*CacheEntry, error)

	// Write replaces the entry atomically
	Write(ctx context.Context, key CacheKey, entry *CacheEntry) error

	// Invalidate removes the entry if present
	Invalidate(ctx context.Context, key CacheKey) error
}

// RefreshMarks remembers listings that must skip the cache on their next load,
// and the last listing the user looked at. Both survive process restarts.
type RefreshMarks interface {
	MarkForRefresh(key CacheKey) error
	ConsumeRefreshMark(key CacheKey) (bool, error)
	SetLastURL(identity, url string) error
	LastURL(identity string) (string, bool)
}

// SweepResult summarizes one janitor pass
type SweepResult struct {
	Checked    int
	Expired    int
	Unreadable int
	// Busy counts entries skipped because their lock stayed held; expired
	// ones among them are retried on the next pass
	Busy     int
	Duration time.Duration
}

// Removed returns the number of entries deleted by the sweep
func (r SweepResult) Removed() int { return r.Expired + r.Unreadable }
