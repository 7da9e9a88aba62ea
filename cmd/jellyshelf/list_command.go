package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/jellyshelf/internal/cache"
	"github.com/mmcdole/jellyshelf/internal/search"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [views|resume|latest|<item-id>|<url>]",
		Short: "List a library, shelf or folder",
		Long: `List a listing through the cache. A cached copy is printed immediately
and then revalidated against the server; if the server has newer contents
the cache is updated and a note is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), nil, func(rt *runtime) error {
				res, err := loadListing(cmd.Context(), ctx, rt, firstArg(args))
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(res.Items))
				for _, item := range res.Items {
					rows = append(rows, itemRow(item))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(itemHeaders, rows, itemAligns, isTerminal(cmd.OutOrStdout())))

				return revalidate(cmd, res)
			})
		},
	}
}

func newFindCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "find <query> [views|resume|latest|<item-id>|<url>]",
		Short: "Fuzzy search the titles of one listing",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			return ctx.withRuntime(cmd.Context(), nil, func(rt *runtime) error {
				res, err := loadListing(cmd.Context(), ctx, rt, firstArg(args[1:]))
				if err != nil {
					return err
				}

				matches := search.Rank(search.Titles(res.Items), query)
				if len(matches) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No titles match %q\n", query)
					return revalidate(cmd, res)
				}
				rows := make([][]string, 0, len(matches))
				for _, match := range matches {
					rows = append(rows, itemRow(res.Items[match.Index]))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(itemHeaders, rows, itemAligns, isTerminal(cmd.OutOrStdout())))

				return revalidate(cmd, res)
			})
		},
	}
}

func loadListing(ctx context.Context, cc *commandContext, rt *runtime, target string) (cache.Result, error) {
	url, _ := resolveTarget(rt, target)
	return rt.manager.GetItems(ctx, cache.Request{
		URL:             url,
		Options:         cc.viewOptions(),
		UseCache:        !cc.flags.noCache,
		ForceInvalidate: cc.flags.refresh,
	})
}

// revalidate runs the refresh of a cache hit inline. A failed refresh
// does not fail the command; the cached listing was already printed.
func revalidate(cmd *cobra.Command, res cache.Result) error {
	if res.Refresh == nil {
		return nil
	}
	outcome, err := res.Refresh.Run(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not check the server for updates: %v\n", err)
		return nil
	}
	if outcome == cache.OutcomeChanged {
		fmt.Fprintln(cmd.ErrOrStderr(), "The server has newer contents; run the command again to see them.")
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
