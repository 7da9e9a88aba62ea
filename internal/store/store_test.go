package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

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

func newTestStore(t *testing.T, clock domain.Clock) *Store {
	t.Helper()
	s, err := New(Options{
		Dir:           t.TempDir(),
		LockTimeout:   200 * time.Millisecond,
		SweepAttempts: 3,
		SweepBackoff:  time.Millisecond,
		Clock:         clock,
	})
	require.NoError(t, err)
	return s
}

func testEntry(url string, names ...string) *domain.CacheEntry {
	items := make([]domain.DisplayItem, 0, len(names))
	for i, n := range names {
		items = append(items, domain.DisplayItem{ID: fmt.Sprintf("id-%d", i), Name: n, Type: domain.ItemTypeMovie})
	}
	return domain.NewFreshEntry(url, "user", domain.Listing{Items: items, TotalCount: len(items)},
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestKeyFor(t *testing.T) {
	a := KeyFor("u1", "http://srv", "/Items?x=1")
	assert.Len(t, string(a), 64)
	assert.Equal(t, a, KeyFor("u1", "http://srv", "/Items?x=1"))
	assert.NotEqual(t, a, KeyFor("u2", "http://srv", "/Items?x=1"))
	assert.NotEqual(t, a, KeyFor("u1", "http://other", "/Items?x=1"))
	assert.NotEqual(t, a, KeyFor("u1", "http://srv", "/Items?x=2"))
	assert.True(t, validKey(a))
	assert.False(t, validKey("../../etc/passwd"))
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	ctx := context.Background()
	key := s.KeyFor("user", "srv", "url")

	_, err := s.Read(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	want := testEntry("url", "Alien", "Blade Runner")
	require.NoError(t, s.Write(ctx, key, want))

	got, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want.Items, got.Items)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
	assert.True(t, want.SavedAt.Equal(got.SavedAt))
	assert.Equal(t, domain.StatusFresh, got.Status)

	// No temp files survive a successful write
	temps, _ := filepath.Glob(filepath.Join(s.Dir(), "*"+tempExt))
	assert.Empty(t, temps)
}

func TestWriteRefusesEmptyEntry(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	key := s.KeyFor("user", "srv", "empty")

	err := s.Write(context.Background(), key, testEntry("empty"))
	assert.ErrorIs(t, err, domain.ErrEmptyEntry)
	_, statErr := os.Stat(s.Path(key))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadCorruptEntries(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	ctx := context.Background()

	tampered := testEntry("url", "Alien")
	tampered.Items[0].Name = "Aliens"
	tamperedData, err := encodeEntry(tampered)
	require.NoError(t, err)

	wrongSchema := `{"schema":2,"kind":"jellyshelf.cache-entry","entry":{}}`

	cases := map[string][]byte{
		"garbage":     []byte("{not json"),
		"truncated":   []byte(`{"schema":1,"kind":"jellyshelf.cache-entry","entry":{"items":[`),
		"schema":      []byte(wrongSchema),
		"no entry":    []byte(`{"schema":1,"kind":"jellyshelf.cache-entry"}`),
		"fingerprint": tamperedData,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			key := s.KeyFor("user", "srv", name)
			require.NoError(t, os.WriteFile(s.Path(key), data, 0o644))

			_, err := s.Read(ctx, key)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.ErrorIs(t, err, domain.ErrCorruptEntry)
		})
	}
}

func TestInvalidate(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	ctx := context.Background()
	key := s.KeyFor("user", "srv", "url")

	require.NoError(t, s.Invalidate(ctx, key), "absent entry is fine")
	require.NoError(t, s.Write(ctx, key, testEntry("url", "Alien")))
	require.NoError(t, s.Invalidate(ctx, key))

	_, err := s.Read(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLockTimeout(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	ctx := context.Background()
	key := s.KeyFor("user", "srv", "url")
	require.NoError(t, s.Write(ctx, key, testEntry("url", "Alien")))

	holder := flock.New(s.lockPath(key))
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	_, err = s.Read(ctx, key)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.ErrorIs(t, s.Write(ctx, key, testEntry("url", "Other")), domain.ErrLockTimeout)

	require.NoError(t, holder.Unlock())
	got, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Alien", got.Items[0].Name)
}

func TestLockHonoursCancelledContext(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	key := s.KeyFor("user", "srv", "url")

	holder := flock.New(s.lockPath(key))
	_, err := holder.TryLock()
	require.NoError(t, err)
	defer holder.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Read(ctx, key)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentWritersNeverTearEntries(t *testing.T) {
	dir := t.TempDir()
	key := KeyFor("user", "srv", "url")

	// Separate Store values stand in for separate processes sharing the directory
	stores := make([]*Store, 4)
	for i := range stores {
		s, err := New(Options{Dir: dir, LockTimeout: 5 * time.Second})
		require.NoError(t, err)
		stores[i] = s
	}

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		s := stores[w%len(stores)]
		names := make([]string, 50)
		for i := range names {
			names[i] = fmt.Sprintf("writer-%d-item-%d", w, i)
		}
		entry := testEntry("url", names...)
		g.Go(func() error {
			for i := 0; i < 20; i++ {
				if err := s.Write(context.Background(), key, entry); err != nil {
					return err
				}
				if _, err := s.Read(context.Background(), key); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	got, err := stores[0].Read(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Len(t, got.Items, 50)
}
