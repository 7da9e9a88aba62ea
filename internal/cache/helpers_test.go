package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/mmcdole/jellyshelf/internal/mediaserver/jellyfin"
	"github.com/mmcdole/jellyshelf/internal/store"
	"github.com/stretchr/testify/require"
)

const testURL = "http://jf/Users/u1/Items?ParentId=lib"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeFetcher serves canned bodies per URL and can be made to fail or block
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	err    error
	gate   chan struct{}
	calls  atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: make(map[string][]byte)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)

	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, domain.ErrFetchFailed
	}
	return body, nil
}

func (f *fakeFetcher) setItems(t *testing.T, url string, items ...jellyfin.Item) {
	t.Helper()
	total := len(items)
	body, err := json.Marshal(jellyfin.ItemsResponse{Items: items, TotalRecordCount: &total})
	require.NoError(t, err)
	f.setBody(url, body)
}

func (f *fakeFetcher) setBody(url string, body []byte) {
	f.mu.Lock()
	f.bodies[url] = body
	f.mu.Unlock()
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (n *recordingNotifier) ContentChanged(ev domain.ChangeEvent) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *recordingNotifier) Events() []domain.ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.ChangeEvent(nil), n.events...)
}

type countingMetrics struct {
	hits, misses, lockTimeouts, dropped, swept atomic.Int32

	mu       sync.Mutex
	outcomes map[Outcome]int
}

func (m *countingMetrics) Hit()         { m.hits.Add(1) }
func (m *countingMetrics) Miss()        { m.misses.Add(1) }
func (m *countingMetrics) LockTimeout() { m.lockTimeouts.Add(1) }
func (m *countingMetrics) Dropped()     { m.dropped.Add(1) }
func (m *countingMetrics) Swept(n int)  { m.swept.Add(int32(n)) }
func (m *countingMetrics) Refresh(o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[Outcome]int)
	}
	m.outcomes[o]++
}

type harness struct {
	manager  *Manager
	store    *store.Store
	marks    *store.Marks
	fetcher  *fakeFetcher
	notifier *recordingNotifier
	metrics  *countingMetrics
	clock    *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := newFakeClock()
	dir := t.TempDir()

	st, err := store.New(store.Options{
		Dir:           dir,
		LockTimeout:   100 * time.Millisecond,
		SweepAttempts: 2,
		Clock:         clock,
	})
	require.NoError(t, err)

	marks, err := store.OpenMarks(dir+"/marks.db", clock)
	require.NoError(t, err)

	h := &harness{
		store:    st,
		marks:    marks,
		fetcher:  newFakeFetcher(),
		notifier: &recordingNotifier{},
		metrics:  &countingMetrics{},
		clock:    clock,
	}
	h.manager, err = NewManager(Options{
		Store:    st,
		Fetcher:  h.fetcher,
		Marks:    marks,
		Notifier: h.notifier,
		Metrics:  h.metrics,
		Clock:    clock,
		UserID:   "u1",
		Server:   "http://jf",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.manager.Close(ctx)
	})
	return h
}

func (h *harness) get(t *testing.T, useCache bool) Result {
	t.Helper()
	res, err := h.manager.GetItems(context.Background(), Request{URL: testURL, UseCache: useCache})
	require.NoError(t, err)
	return res
}

func (h *harness) stored(t *testing.T) *domain.CacheEntry {
	t.Helper()
	entry, err := h.store.Read(context.Background(), h.manager.KeyFor(testURL))
	require.NoError(t, err)
	return entry
}

func movie(id, name string, playCount int) jellyfin.Item {
	return jellyfin.Item{
		ID:   id,
		Name: name,
		Type: "Movie",
		UserData: &jellyfin.UserData{
			Played:    playCount > 0,
			PlayCount: playCount,
		},
	}
}
