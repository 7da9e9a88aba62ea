package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// EntryStatus records how a cache entry got its current contents
type EntryStatus string

const (
	// StatusFresh means the items came straight from the server
	StatusFresh EntryStatus = "fresh"
	// StatusReconfirmed means a refresh inside the freshness window kept the items as they were
	StatusReconfirmed EntryStatus = "reconfirmed"
)

// CacheKey addresses one cache entry. It is a hex digest of (user, server, url).
type CacheKey string

// CacheEntry is the persisted unit for one listing URL
type CacheEntry struct {
	Items          []DisplayItem `json:"items"`
	Fingerprint    string        `json:"fingerprint"`
	URL            string        `json:"url"`
	UserID         string        `json:"user_id"`
	SavedAt        time.Time     `json:"saved_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
	Status         EntryStatus   `json:"status"`
	TotalCount     int           `json:"total_count"`
}

// NewFreshEntry builds an entry for a listing that was just fetched
func NewFreshEntry(url, userID string, listing Listing, now time.Time) *CacheEntry {
	return &CacheEntry{
		Items:          listing.Items,
		Fingerprint:    Fingerprint(listing.Items),
		URL:            url,
		UserID:         userID,
		SavedAt:        now,
		LastAccessedAt: now,
		Status:         StatusFresh,
		TotalCount:     listing.TotalCount,
	}
}

// Clone returns a copy whose item slice can be modified independently
func (e *CacheEntry) Clone() *CacheEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.Items = append([]DisplayItem(nil), e.Items...)
	return &c
}

// Validate checks the entry invariants. An entry that fails is treated as corrupt.
func (e *CacheEntry) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrCorruptEntry)
	}
	if len(e.Items) == 0 {
		return ErrEmptyEntry
	}
	switch e.Status {
	case StatusFresh, StatusReconfirmed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrCorruptEntry, e.Status)
	}
	if err := ValidateItems(e.Items); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if got := Fingerprint(e.Items); got != e.Fingerprint {
		return fmt.Errorf("%w: fingerprint mismatch", ErrCorruptEntry)
	}
	return nil
}

// ValidateItems checks the per-item invariants of one listing
func ValidateItems(items []DisplayItem) error {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			return fmt.Errorf("item %d has empty id", i)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("duplicate item id %s", it.ID)
		}
		seen[it.ID] = struct{}{}
		if it.PlayCount < 0 || it.ResumeTime < 0 || it.TotalEpisodes < 0 || it.WatchedEpisodes < 0 ||
			it.UnwatchedEpisodes < 0 || it.RecursiveUnplayedItemsCount < 0 || it.TotalSeasons < 0 {
			return fmt.Errorf("item %s has negative counter", it.ID)
		}
		if it.TotalEpisodes < it.WatchedEpisodes {
			return fmt.Errorf("item %s watched %d of %d episodes", it.ID, it.WatchedEpisodes, it.TotalEpisodes)
		}
	}
	return nil
}

// FingerprintFields is the subset of an item that decides whether a listing changed
type FingerprintFields struct {
	Name                        string
	PlayCount                   int
	Favorite                    bool
	ResumeTime                  int64
	RecursiveUnplayedItemsCount int
	Etag                        string
}

// FingerprintFields returns the fields hashed for change detection
func (d DisplayItem) FingerprintFields() FingerprintFields {
	return FingerprintFields{
		Name:                        d.Name,
		PlayCount:                   d.PlayCount,
		Favorite:                    d.Favorite,
		ResumeTime:                  d.ResumeTime,
		RecursiveUnplayedItemsCount: d.RecursiveUnplayedItemsCount,
		Etag:                        d.Etag,
	}
}

// Fingerprint hashes the fingerprint fields of every item in order.
// Strings are quoted so field boundaries can never be confused.
func Fingerprint(items []DisplayItem) string {
	h := sha256.New()
	for i := range items {
		f := items[i].FingerprintFields()
		fmt.Fprintf(h, "%q|%d|%t|%d|%d|%q\n",
			f.Name, f.PlayCount, f.Favorite, f.ResumeTime, f.RecursiveUnplayedItemsCount, f.Etag)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Listing is one decoded server response
type Listing struct {
	Items            []DisplayItem
	TotalCount       int
	BaselineItemName string
}
