package tui

import (
	"github.com/mmcdole/jellyshelf/internal/cache"
	"github.com/mmcdole/jellyshelf/internal/domain"
)

// Message types for the TUI

// loadRequest describes one listing load issued by the browser
type loadRequest struct {
	URL   string
	Title string

	UseCache bool
	Force    bool

	// StartRefresh starts the background refresh once a cached listing is shown
	StartRefresh bool

	// Cursor restores the selection after navigating back; -1 keeps it
	Cursor int
}

// ListingLoadedMsg carries the result of a listing load
type ListingLoadedMsg struct {
	Req    loadRequest
	Result cache.Result
	Err    error
}

// RefreshDoneMsg signals that a background refresh finished
type RefreshDoneMsg struct {
	URL     string
	Outcome cache.Outcome
	Err     error
}

// ContentChangedMsg relays a cache change notification
type ContentChangedMsg struct {
	Event domain.ChangeEvent
}

// MutationDoneMsg signals that a watched/favorite change reached the server
type MutationDoneMsg struct {
	Action MutationAction
	Item   domain.DisplayItem
	Err    error
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
