package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

// State is the lifecycle position of a Refresh
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "done"
	}
}

// Refresh re-validates one cached listing against the server. It is bound
// to the entry snapshot served to the caller and runs at most once.
type Refresh struct {
	m        *Manager
	key      domain.CacheKey
	url      string
	opts     domain.ViewOptions
	snapshot *domain.CacheEntry

	state   atomic.Int32
	done    chan struct{}
	outcome Outcome
	err     error
}

func (m *Manager) newRefresh(key domain.CacheKey, url string, opts domain.ViewOptions, snapshot *domain.CacheEntry) *Refresh {
	return &Refresh{
		m:        m,
		key:      key,
		url:      url,
		opts:     opts,
		snapshot: snapshot.Clone(),
		done:     make(chan struct{}),
	}
}

// Key returns the cache key being refreshed
func (r *Refresh) Key() domain.CacheKey { return r.key }

// URL returns the listing URL being refreshed
func (r *Refresh) URL() string { return r.url }

// State returns the current lifecycle state
func (r *Refresh) State() State { return State(r.state.Load()) }

// Start queues the refresh on the manager's pool and returns immediately.
// Only the first call has an effect. If the queue is full the refresh
// finishes as skipped.
func (r *Refresh) Start() bool {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return false
	}
	ok := r.m.pool.Submit(func(ctx context.Context) {
		r.finish(r.execute(ctx))
	})
	if !ok {
		r.finish(OutcomeSkipped, nil)
	}
	return ok
}

// Run performs the refresh on the calling goroutine. A refresh that was
// already started reports OutcomeSkipped without doing anything.
func (r *Refresh) Run(ctx context.Context) (Outcome, error) {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return OutcomeSkipped, nil
	}
	outcome, err := r.execute(ctx)
	r.finish(outcome, err)
	return outcome, err
}

// Wait blocks until a started refresh is done or ctx ends
func (r *Refresh) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, r.err
	case <-ctx.Done():
		return OutcomeSkipped, ctx.Err()
	}
}

func (r *Refresh) finish(outcome Outcome, err error) {
	r.outcome = outcome
	r.err = err
	r.state.Store(int32(StateDone))
	r.m.metrics.Refresh(outcome)
	close(r.done)
}

func (r *Refresh) execute(ctx context.Context) (Outcome, error) {
	m := r.m
	log := m.logger.With("url", r.url)
	now := m.clock.Now()

	if r.snapshot.Status == domain.StatusFresh && now.Sub(r.snapshot.SavedAt) < m.freshness {
		if err := r.touch(ctx, now, domain.StatusReconfirmed); err != nil {
			return r.failed(log, "reconfirm", err)
		}
		log.Debug("refresh reconfirmed", "age", now.Sub(r.snapshot.SavedAt))
		return OutcomeReconfirmed, nil
	}

	listing, err := m.fetchListing(ctx, r.url, r.opts)
	if err != nil {
		return r.failed(log, "fetch", err)
	}
	if len(listing.Items) == 0 {
		log.Info("refresh returned no items, keeping cached entry")
		return OutcomeSkipped, nil
	}

	if domain.Fingerprint(listing.Items) == r.snapshot.Fingerprint {
		if err := r.touch(ctx, now, ""); err != nil {
			return r.failed(log, "touch", err)
		}
		log.Debug("refresh unchanged")
		return OutcomeUnchanged, nil
	}

	entry := domain.NewFreshEntry(r.url, m.userID, listing, now)
	if err := m.store.Write(ctx, r.key, entry); err != nil {
		return r.failed(log, "write", err)
	}
	log.Info("listing changed", "items", len(entry.Items))
	m.notifier.ContentChanged(domain.ChangeEvent{Key: r.key, URL: r.url})
	return OutcomeChanged, nil
}

// touch bumps LastAccessedAt on the stored entry, optionally setting status.
// It re-reads the entry first so a newer write by another process is kept.
func (r *Refresh) touch(ctx context.Context, now time.Time, status domain.EntryStatus) error {
	current, err := r.m.store.Read(ctx, r.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Invalidated meanwhile; don't bring it back
			return nil
		}
		return err
	}
	current.LastAccessedAt = now
	if status != "" && current.SavedAt.Equal(r.snapshot.SavedAt) {
		current.Status = status
	}
	return r.m.store.Write(ctx, r.key, current)
}

func (r *Refresh) failed(log *slog.Logger, step string, err error) (Outcome, error) {
	log.Warn("refresh failed", "step", step, "error", err)
	return OutcomeFailed, fmt.Errorf("refresh %s: %w", step, err)
}
