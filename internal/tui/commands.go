package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/jellyshelf/internal/cache"
	"github.com/mmcdole/jellyshelf/internal/domain"
)

// Command factories for async operations

const (
	loadTimeout     = 60 * time.Second
	refreshTimeout  = 2 * time.Minute
	mutationTimeout = 15 * time.Second
	statusDuration  = 3 * time.Second
)

// MutationAction is a per-user state change on one item
type MutationAction int

const (
	ActionMarkWatched MutationAction = iota
	ActionMarkUnwatched
	ActionFavorite
	ActionUnfavorite
)

func (a MutationAction) String() string {
	switch a {
	case ActionMarkWatched:
		return "marked watched"
	case ActionMarkUnwatched:
		return "marked unwatched"
	case ActionFavorite:
		return "added to favorites"
	default:
		return "removed from favorites"
	}
}

// LoadListingCmd loads a listing through the cache
func LoadListingCmd(mgr *cache.Manager, opts domain.ViewOptions, req loadRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		res, err := mgr.GetItems(ctx, cache.Request{
			URL:             req.URL,
			Options:         opts,
			UseCache:        req.UseCache,
			ForceInvalidate: req.Force,
		})
		return ListingLoadedMsg{Req: req, Result: res, Err: err}
	}
}

// StartRefreshCmd queues a refresh and reports when it is done
func StartRefreshCmd(r *cache.Refresh) tea.Cmd {
	return func() tea.Msg {
		r.Start()

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		outcome, err := r.Wait(ctx)
		return RefreshDoneMsg{URL: r.URL(), Outcome: outcome, Err: err}
	}
}

// WaitForChangeCmd blocks until the next change notification
func WaitForChangeCmd(ch <-chan domain.ChangeEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ContentChangedMsg{Event: ev}
	}
}

// MutateCmd applies action to item on the server
func MutateCmd(repo domain.MetadataRepository, action MutationAction, item domain.DisplayItem) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()

		var err error
		switch action {
		case ActionMarkWatched:
			err = repo.MarkPlayed(ctx, item.ID)
		case ActionMarkUnwatched:
			err = repo.MarkUnplayed(ctx, item.ID)
		case ActionFavorite:
			err = repo.SetFavorite(ctx, item.ID, true)
		case ActionUnfavorite:
			err = repo.SetFavorite(ctx, item.ID, false)
		}
		return MutationDoneMsg{Action: action, Item: item, Err: err}
	}
}

// MarkStaleCmd makes the next load of each url bypass the cache
func MarkStaleCmd(mgr *cache.Manager, logger *slog.Logger, urls []string) tea.Cmd {
	if len(urls) == 0 {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		for _, u := range urls {
			if err := mgr.MarkForRefresh(ctx, u); err != nil {
				logger.Warn("failed to mark listing for refresh", "url", u, "error", err)
			}
		}
		return nil
	}
}

// TickCmd creates a tick command for animations
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status line after a delay
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
