package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/mmcdole/jellyshelf/internal/mediaserver/jellyfin"
	"golang.org/x/sync/singleflight"
)

const DefaultFreshnessWindow = 20 * time.Second

// sharedLoadTimeout bounds a coalesced fetch, which outlives its callers' contexts
const sharedLoadTimeout = 2 * time.Minute

// Decoder turns a raw listing body into display items
type Decoder func(body []byte, opts domain.ViewOptions) (domain.Listing, error)

// Options configures a Manager
type Options struct {
	Store   domain.EntryStore // required
	Fetcher domain.Fetcher    // required

	// Marks carries forced-refresh marks across processes. Optional.
	Marks    domain.RefreshMarks
	Notifier domain.Notifier
	Metrics  Metrics
	Clock    domain.Clock
	Logger   *slog.Logger
	Decode   Decoder

	UserID string
	Server string

	FreshnessWindow time.Duration
	RefreshWorkers  int
	RefreshQueue    int
}

// Request describes one listing load
type Request struct {
	URL     string
	Options domain.ViewOptions

	// UseCache false always fetches synchronously
	UseCache bool

	// ForceInvalidate drops the stored entry before the hit/miss check
	ForceInvalidate bool
}

// Result is what a listing load hands back to the caller
type Result struct {
	// URL is the last successfully loaded URL
	URL        string
	Key        domain.CacheKey
	Items      []domain.DisplayItem
	TotalCount int
	FromCache  bool

	// Refresh is set on cache hits. It has not been started; the caller
	// starts it once the items are on screen.
	Refresh *Refresh
}

// Manager is the cache orchestrator. It serves listings from the store when
// it can and fetches them when it must.
type Manager struct {
	store     domain.EntryStore
	fetcher   domain.Fetcher
	marks     domain.RefreshMarks
	notifier  domain.Notifier
	metrics   Metrics
	clock     domain.Clock
	logger    *slog.Logger
	decode    Decoder
	userID    string
	server    string
	freshness time.Duration

	pool  *Pool
	loads singleflight.Group
}

// NewManager validates opts, fills defaults and starts the refresh pool
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("cache: store is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("cache: fetcher is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = domain.NoOpNotifier{}
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Decode == nil {
		opts.Decode = jellyfin.DecodeListing
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = DefaultFreshnessWindow
	}
	if opts.RefreshQueue <= 0 {
		opts.RefreshQueue = DefaultRefreshQueue
	}

	logger := opts.Logger.With("component", "cache")
	return &Manager{
		store:     opts.Store,
		fetcher:   opts.Fetcher,
		marks:     opts.Marks,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		clock:     opts.Clock,
		logger:    logger,
		decode:    opts.Decode,
		userID:    opts.UserID,
		server:    opts.Server,
		freshness: opts.FreshnessWindow,
		pool:      NewPool(opts.RefreshWorkers, opts.RefreshQueue, opts.Metrics, opts.Logger),
	}, nil
}

// Close stops the refresh pool, letting queued refreshes finish while ctx allows
func (m *Manager) Close(ctx context.Context) error {
	return m.pool.Shutdown(ctx)
}

// KeyFor returns the cache key of a listing URL for this manager's user and server
func (m *Manager) KeyFor(url string) domain.CacheKey {
	return m.store.KeyFor(m.userID, m.server, url)
}

func (m *Manager) identity() string {
	return m.userID + "@" + m.server
}

// GetItems returns the items of a listing. On a hit it answers from the
// store at once and hands back an unstarted Refresh. On a miss it fetches
// synchronously. Fetch failures are reported as ErrUnableToLoad, never as
// an empty list.
func (m *Manager) GetItems(ctx context.Context, req Request) (Result, error) {
	if req.URL == "" {
		return Result{}, fmt.Errorf("%w: empty url", domain.ErrUnableToLoad)
	}

	key := m.KeyFor(req.URL)
	res := Result{URL: req.URL, Key: key}

	invalidate := req.ForceInvalidate
	if m.marks != nil {
		marked, err := m.marks.ConsumeRefreshMark(key)
		if err != nil {
			m.logger.Warn("failed to read refresh mark", "url", req.URL, "error", err)
		}
		invalidate = invalidate || marked
	}
	if invalidate {
		if err := m.store.Invalidate(ctx, key); err != nil {
			m.logger.Warn("failed to invalidate entry", "url", req.URL, "error", err)
		}
	}

	if req.UseCache && !invalidate {
		entry, err := m.store.Read(ctx, key)
		switch {
		case err == nil:
			m.metrics.Hit()
			m.logger.Debug("cache hit", "url", req.URL, "items", len(entry.Items))
			res.Items = entry.Clone().Items
			res.TotalCount = entry.TotalCount
			res.FromCache = true
			res.Refresh = m.newRefresh(key, req.URL, req.Options, entry)
			m.rememberURL(req.URL)
			return res, nil
		case errors.Is(err, domain.ErrLockTimeout):
			m.metrics.LockTimeout()
			m.logger.Warn("cache read lock timeout, fetching", "url", req.URL)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return res, err
		case !errors.Is(err, domain.ErrNotFound):
			m.logger.Warn("cache read failed, fetching", "url", req.URL, "error", err)
		}
	}

	m.metrics.Miss()
	listing, err := m.load(ctx, key, req)
	if err != nil {
		m.logger.Error("failed to load listing", "url", req.URL, "error", err)
		return res, fmt.Errorf("%w: %s: %w", domain.ErrUnableToLoad, req.URL, err)
	}

	res.Items = make([]domain.DisplayItem, len(listing.Items))
	copy(res.Items, listing.Items)
	res.TotalCount = listing.TotalCount
	m.rememberURL(req.URL)
	return res, nil
}

// load fetches, decodes and persists a listing. Concurrent loads of the
// same key and view options share one fetch. The shared fetch is detached
// from any single caller's cancellation and bounded by sharedLoadTimeout;
// each caller stops waiting when its own ctx ends.
func (m *Manager) load(ctx context.Context, key domain.CacheKey, req Request) (domain.Listing, error) {
	flightKey := fmt.Sprintf("%s|%+v", key, req.Options)
	ch := m.loads.DoChan(flightKey, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		listing, err := m.fetchListing(flightCtx, req.URL, req.Options)
		if err != nil {
			return domain.Listing{}, err
		}
		if len(listing.Items) == 0 {
			// Confirmed empty: shown, never persisted
			return listing, nil
		}

		entry := domain.NewFreshEntry(req.URL, m.userID, listing, m.clock.Now())
		if err := m.store.Write(flightCtx, key, entry); err != nil {
			m.logger.Warn("failed to persist listing", "url", req.URL, "error", err)
		}
		return listing, nil
	})

	select {
	case <-ctx.Done():
		return domain.Listing{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Listing{}, res.Err
		}
		if res.Shared {
			m.logger.Debug("shared in-flight load", "url", req.URL)
		}
		return res.Val.(domain.Listing), nil
	}
}

func (m *Manager) fetchListing(ctx context.Context, url string, opts domain.ViewOptions) (domain.Listing, error) {
	body, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		return domain.Listing{}, err
	}
	listing, err := m.decode(body, opts)
	if err != nil {
		return domain.Listing{}, err
	}
	if listing.Items == nil {
		listing.Items = []domain.DisplayItem{}
	}
	return listing, nil
}

func (m *Manager) rememberURL(url string) {
	if m.marks == nil {
		return
	}
	if err := m.marks.SetLastURL(m.identity(), url); err != nil {
		m.logger.Debug("failed to remember last url", "error", err)
	}
}

// LastURL returns the last listing URL loaded successfully by any process
// for this user and server
func (m *Manager) LastURL() (string, bool) {
	if m.marks == nil {
		return "", false
	}
	return m.marks.LastURL(m.identity())
}

// MarkForRefresh makes the next load of url bypass the cache. Without a
// marks store the entry is invalidated right away, which has the same effect.
func (m *Manager) MarkForRefresh(ctx context.Context, url string) error {
	key := m.KeyFor(url)
	if m.marks == nil {
		return m.store.Invalidate(ctx, key)
	}
	return m.marks.MarkForRefresh(key)
}

// Invalidate drops the stored entry for url
func (m *Manager) Invalidate(ctx context.Context, url string) error {
	return m.store.Invalidate(ctx, m.KeyFor(url))
}
