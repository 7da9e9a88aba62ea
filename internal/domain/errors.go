package domain

import "errors"

// Sentinel errors for cache and transport operations
var (
	// ErrServerOffline indicates the media server is unreachable
	ErrServerOffline = errors.New("media server is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrFetchFailed indicates a transient network or HTTP failure while fetching a listing
	ErrFetchFailed = errors.New("fetch failed")

	// ErrMalformedResponse indicates the server answered but the payload cannot be turned into items
	ErrMalformedResponse = errors.New("malformed server response")

	// ErrUnableToLoad is returned to callers when a listing cannot be shown at all
	ErrUnableToLoad = errors.New("unable to load listing")

	// ErrNotFound indicates there is no usable cache entry for a key
	ErrNotFound = errors.New("cache entry not found")

	// ErrCorruptEntry indicates a stored entry failed to decode or validate
	ErrCorruptEntry = errors.New("corrupt cache entry")

	// ErrEmptyEntry indicates an attempt to persist an entry without items
	ErrEmptyEntry = errors.New("cache entry has no items")

	// ErrLockTimeout indicates the per-key lock could not be acquired in time
	ErrLockTimeout = errors.New("cache lock timeout")
)

// IsTransient reports whether err is a fetch failure worth retrying later
func IsTransient(err error) bool {
	return errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrServerOffline)
}
