package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmcdole/jellyshelf/internal/cache"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired and unreadable cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), nil, func(rt *runtime) error {
				janitor := cache.NewJanitor(rt.store, rt.cfg.Cache.Retention, rt.cfg.Cache.SweepInterval, rt.metrics, ctx.loggerFor(rt.cfg))
				res := janitor.SweepOnce(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Checked %d entries: %d expired, %d unreadable removed in %s\n",
					res.Checked, res.Expired, res.Unreadable, res.Duration.Round(time.Millisecond))
				if res.Busy > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%d entries were in use and will be checked on the next sweep\n", res.Busy)
				}
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached listing and refresh mark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), nil, func(rt *runtime) error {
				removed, err := rt.store.Clear()
				if err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				if err := rt.marks.Reset(); err != nil {
					return fmt.Errorf("reset refresh marks: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached listings from %s\n", removed, rt.store.Dir())
				return nil
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache directory holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), nil, func(rt *runtime) error {
				st, err := rt.store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				rows := [][]string{
					{"Directory", rt.store.Dir()},
					{"Listings", humanize.Comma(int64(st.Entries))},
					{"Items", humanize.Comma(int64(st.Items))},
					{"Unreadable", humanize.Comma(int64(st.Unreadable))},
					{"Size", humanize.Bytes(uint64(max(st.Bytes, 0)))},
					{"Oldest access", relTime(st.Oldest)},
					{"Newest access", relTime(st.Newest)},
					{"Retention", rt.cfg.Cache.Retention.String()},
				}
				if last, ok := rt.manager.LastURL(); ok {
					rows = append(rows, []string{"Last viewed", last})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Cache", "Value"}, rows, nil, isTerminal(cmd.OutOrStdout())))
				return nil
			})
		},
	}
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
