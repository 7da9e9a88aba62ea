package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type markAction struct {
	name    string
	summary string
	apply   func(ctx context.Context, rt *runtime, itemID string) error
}

var markActions = []markAction{
	{
		name:    "watched",
		summary: "marked watched",
		apply: func(ctx context.Context, rt *runtime, id string) error {
			return rt.client.MarkPlayed(ctx, id)
		},
	},
	{
		name:    "unwatched",
		summary: "marked unwatched",
		apply: func(ctx context.Context, rt *runtime, id string) error {
			return rt.client.MarkUnplayed(ctx, id)
		},
	},
	{
		name:    "favorite",
		summary: "added to favorites",
		apply: func(ctx context.Context, rt *runtime, id string) error {
			return rt.client.SetFavorite(ctx, id, true)
		},
	},
	{
		name:    "unfavorite",
		summary: "removed from favorites",
		apply: func(ctx context.Context, rt *runtime, id string) error {
			return rt.client.SetFavorite(ctx, id, false)
		},
	},
}

func newMarkCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Change the watch state or favorite flag of an item",
	}
	for _, action := range markActions {
		cmd.AddCommand(newMarkActionCommand(ctx, action))
	}
	return cmd
}

func newMarkActionCommand(ctx *commandContext, action markAction) *cobra.Command {
	return &cobra.Command{
		Use:   action.name + " <item-id>...",
		Short: "Mark items " + action.name,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), nil, func(rt *runtime) error {
				for _, id := range args {
					id = strings.TrimSpace(id)
					if err := action.apply(cmd.Context(), rt, id); err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, action.summary)
				}

				// The listing that showed these items is now out of date
				for _, url := range staleListings(rt) {
					if err := rt.manager.MarkForRefresh(cmd.Context(), url); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Could not mark %s for refresh: %v\n", url, err)
					}
				}
				return nil
			})
		},
	}
}

// staleListings returns the listings a mutation may have changed
func staleListings(rt *runtime) []string {
	urls := make([]string, 0, 3)
	if last, ok := rt.manager.LastURL(); ok {
		urls = append(urls, last)
	}
	for _, shelf := range []string{"resume", "latest"} {
		url, _ := resolveTarget(rt, shelf)
		urls = append(urls, url)
	}
	return urls
}
