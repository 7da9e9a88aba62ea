package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config      string
	metricsAddr string
	noCache     bool
	refresh     bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "jellyshelf",
		Short:         "Browse a Jellyfin library through a local listing cache",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	rootCmd.PersistentFlags().BoolVar(&flags.noCache, "no-cache", false, "Always fetch listings from the server")
	rootCmd.PersistentFlags().BoolVar(&flags.refresh, "refresh", false, "Drop the cached copy before loading")

	rootCmd.AddCommand(newLoginCommand(ctx))
	browseCmd := newBrowseCommand(ctx)
	rootCmd.RunE = browseCmd.RunE
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newFindCommand(ctx))
	rootCmd.AddCommand(newMarkCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
