package jellyfin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"resty.dev/v3"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultRetryCount = 3
	defaultRetryWait  = 500 * time.Millisecond
	maxRetryWait      = 2 * time.Second
)

// ClientConfig holds the connection settings for one server/user pair
type ClientConfig struct {
	BaseURL  string
	Token    string
	UserID   string
	DeviceID string

	// Zero values select the defaults above
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// Client fetches listings and mutates user data on a Jellyfin server.
// It implements domain.Fetcher and domain.MetadataRepository.
type Client struct {
	baseURL string
	userID  string
	http    *resty.Client
	logger  *slog.Logger
}

var (
	_ domain.Fetcher            = (*Client)(nil)
	_ domain.MetadataRepository = (*Client)(nil)
)

// NewClient creates a new Jellyfin API client
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	} else if cfg.RetryCount == 0 {
		cfg.RetryCount = defaultRetryCount
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = defaultRetryWait
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("X-Emby-Authorization", buildAuthHeader(cfg.Token, cfg.DeviceID)).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(max(cfg.RetryWait, maxRetryWait)).
		AddRetryConditions(func(resp *resty.Response, err error) bool {
			// Retry on transport errors and 5xx server errors
			return err != nil || (resp != nil && resp.StatusCode() >= http.StatusInternalServerError)
		})

	return &Client{
		baseURL: baseURL,
		userID:  cfg.UserID,
		http:    rc,
		logger:  logger.With("component", "jellyfin"),
	}
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

// BaseURL returns the normalized server URL
func (c *Client) BaseURL() string { return c.baseURL }

// UserID returns the user the client acts for
func (c *Client) UserID() string { return c.userID }

// Fetch performs a GET on a listing URL and returns the raw body.
// Relative URLs are resolved against the server base URL.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url)
}

// MarkPlayed marks an item as fully watched
func (c *Client) MarkPlayed(ctx context.Context, itemID string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/Users/%s/PlayedItems/%s", c.userID, itemID))
	return err
}

// MarkUnplayed marks an item as unwatched
func (c *Client) MarkUnplayed(ctx context.Context, itemID string) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/Users/%s/PlayedItems/%s", c.userID, itemID))
	return err
}

// SetFavorite adds or removes an item from the user's favorites
func (c *Client) SetFavorite(ctx context.Context, itemID string, favorite bool) error {
	method := http.MethodPost
	if !favorite {
		method = http.MethodDelete
	}
	_, err := c.do(ctx, method, fmt.Sprintf("/Users/%s/FavoriteItems/%s", c.userID, itemID))
	return err
}

// do performs an authenticated request. Transport failures map to
// ErrServerOffline, 401 to ErrAuthFailed and any other non-2xx to ErrFetchFailed.
func (c *Client) do(ctx context.Context, method, url string) ([]byte, error) {
	c.logger.Debug("jellyfin request", "method", method, "url", url)

	resp, err := c.http.R().
		SetContext(ctx).
		Execute(method, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("jellyfin request failed", "method", method, "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}

	status := resp.StatusCode()
	if status == http.StatusUnauthorized {
		return nil, domain.ErrAuthFailed
	}
	if status < 200 || status >= 300 {
		c.logger.Error("jellyfin request error", "method", method, "url", url, "status", status)
		return nil, fmt.Errorf("%w: %s %s: status %d", domain.ErrFetchFailed, method, url, status)
	}

	return resp.Bytes(), nil
}
