package store

import (
	"encoding/json"
	"fmt"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

const (
	schemaVersion = 1
	entryKind     = "jellyshelf.cache-entry"
)

// envelope is the on-disk shape of one entry file
type envelope struct {
	Schema int                `json:"schema"`
	Kind   string             `json:"kind"`
	Entry  *domain.CacheEntry `json:"entry"`
}

func encodeEntry(entry *domain.CacheEntry) ([]byte, error) {
	data, err := json.Marshal(envelope{Schema: schemaVersion, Kind: entryKind, Entry: entry})
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return data, nil
}

// decodeEntry parses and validates an entry file. Every failure matches ErrCorruptEntry.
func decodeEntry(data []byte) (*domain.CacheEntry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptEntry, err)
	}
	if env.Schema != schemaVersion || env.Kind != entryKind {
		return nil, fmt.Errorf("%w: unexpected envelope %q v%d", domain.ErrCorruptEntry, env.Kind, env.Schema)
	}
	if env.Entry == nil {
		return nil, fmt.Errorf("%w: envelope without entry", domain.ErrCorruptEntry)
	}
	if err := env.Entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptEntry, err)
	}
	return env.Entry, nil
}
