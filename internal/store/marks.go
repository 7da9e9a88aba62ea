package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketRefresh = []byte("refresh")
	bucketLastURL = []byte("last_url")
)

const marksOpenTimeout = time.Second

// Marks keeps forced-refresh marks and the last loaded URL in a BoltDB file.
// The database is opened per operation so that several short-lived CLI
// processes and a long-running browser can share it.
type Marks struct {
	path  string
	clock domain.Clock
}

var _ domain.RefreshMarks = (*Marks)(nil)

// OpenMarks prepares the marks database at path, creating its buckets
func OpenMarks(path string, clock domain.Clock) (*Marks, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create marks directory: %w", err)
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	m := &Marks{path: path, clock: clock}

	err := m.update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRefresh, bucketLastURL} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Marks) open() (*bolt.DB, error) {
	db, err := bolt.Open(m.path, 0o600, &bolt.Options{Timeout: marksOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return db, nil
}

func (m *Marks) update(fn func(tx *bolt.Tx) error) error {
	db, err := m.open()
	if err != nil {
		return err
	}
	return errors.Join(db.Update(fn), db.Close())
}

func (m *Marks) view(fn func(tx *bolt.Tx) error) error {
	db, err := m.open()
	if err != nil {
		return err
	}
	return errors.Join(db.View(fn), db.Close())
}

// MarkForRefresh records that the next load of key must bypass the cache
func (m *Marks) MarkForRefresh(key domain.CacheKey) error {
	stamp := []byte(strconv.FormatInt(m.clock.Now().Unix(), 10))
	return m.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRefresh).Put([]byte(key), stamp)
	})
}

// ConsumeRefreshMark reports whether key was marked and clears the mark in
// the same transaction
func (m *Marks) ConsumeRefreshMark(key domain.CacheKey) (bool, error) {
	var marked bool
	err := m.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRefresh)
		if b.Get([]byte(key)) == nil {
			return nil
		}
		marked = true
		return b.Delete([]byte(key))
	})
	return marked, err
}

// SetLastURL remembers the last successfully loaded URL for an identity (user@server)
func (m *Marks) SetLastURL(identity, url string) error {
	return m.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLastURL).Put([]byte(identity), []byte(url))
	})
}

// LastURL returns the URL stored by SetLastURL
func (m *Marks) LastURL(identity string) (string, bool) {
	var url string
	err := m.view(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketLastURL).Get([]byte(identity)); v != nil {
			url = string(v)
		}
		return nil
	})
	if err != nil || url == "" {
		return "", false
	}
	return url, true
}

// Reset drops all marks and remembered URLs
func (m *Marks) Reset() error {
	return m.update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRefresh, bucketLastURL} {
			if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}
