package domain

import (
	"context"
)

// Fetcher performs the network call for a fully resolved listing URL.
// It returns the raw response body; decoding is the transformer's job.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a plain function to Fetcher
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f(ctx, url)
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// MetadataRepository mutates per-user item state on the server
type MetadataRepository interface {
	// MarkPlayed marks an item as fully watched
	MarkPlayed(ctx context.Context, itemID string) error

	// MarkUnplayed marks an item as unwatched
	MarkUnplayed(ctx context.Context, itemID string) error

	// SetFavorite adds or removes an item from the user's favorites
	SetFavorite(ctx context.Context, itemID string, favorite bool) error
}

// AuthResult contains the result of a successful authentication
type AuthResult struct {
	Token    string // Access token for API calls
	UserID   string // User identifier
	Username string // Display username
}

// AuthFlow authenticates against a media server.
// Implementations handle their own user interaction (prompting for credentials, etc.)
type AuthFlow interface {
	Run(ctx context.Context, serverURL string) (*AuthResult, error)
}
