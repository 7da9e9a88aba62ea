package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/jellyshelf/internal/cache"
	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/mmcdole/jellyshelf/internal/mediaserver/jellyfin"
	"github.com/mmcdole/jellyshelf/internal/tui"
)

// changeBuffer bounds pending change notifications; extra ones are dropped
const changeBuffer = 32

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [views|resume|latest|<item-id>|<url>]",
		Short: "Open the interactive library browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := make(chan domain.ChangeEvent, changeBuffer)
			notifier := domain.NewChannelNotifier(changes)

			return ctx.withRuntime(cmd.Context(), notifier, func(rt *runtime) error {
				logger := ctx.loggerFor(rt.cfg)

				runCtx, cancel := context.WithCancel(cmd.Context())
				defer cancel()

				janitor := cache.NewJanitor(rt.store, rt.cfg.Cache.Retention, rt.cfg.Cache.SweepInterval, rt.metrics, logger)
				go janitor.Run(runCtx)

				rootURL, rootTitle := resolveTarget(rt, firstArg(args))
				if ctx.flags.refresh {
					if err := rt.manager.Invalidate(runCtx, rootURL); err != nil {
						logger.Warn("could not drop cached listing", "url", rootURL, "error", err)
					}
				}

				server, userID := rt.client.BaseURL(), rt.client.UserID()
				model := tui.NewModel(tui.Deps{
					Manager:  rt.manager,
					Metadata: rt.client,
					Changes:  changes,
					Options:  rt.cfg.ViewOptions(),
					ChildrenURL: func(parentID string) string {
						return jellyfin.ChildrenURL(server, userID, parentID)
					},
					BypassCache: ctx.flags.noCache,
					Logger:      logger,
				}, rootURL, rootTitle)

				p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
				if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
					logger.Error("browser exited with error", "error", err)
					return err
				}
				return nil
			})
		},
	}
}
