package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/jellyshelf/internal/config"
	"github.com/mmcdole/jellyshelf/internal/mediaserver/jellyfin"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Authenticate against a Jellyfin server and save the token",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ctx.configPath()
			cfg, err := config.Load(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Ignoring unreadable config: %v\n", err)
				cfg = config.DefaultConfig()
			}

			if serverURL == "" {
				serverURL, err = promptServerURL(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Server.URL)
				if err != nil {
					return err
				}
			}
			serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")

			if cfg.Server.DeviceID == "" {
				cfg.Server.DeviceID = jellyfin.NewDeviceID()
			}
			defer func() { _ = ctx.close(cmd.Context()) }()
			flow := jellyfin.NewAuthFlow(cfg.Server.DeviceID, ctx.loggerFor(cfg))
			result, err := flow.Run(cmd.Context(), serverURL)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			cfg.Server.URL = serverURL
			cfg.Server.Token = result.Token
			cfg.Server.UserID = result.UserID
			cfg.Server.Username = result.Username

			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s. Config saved to %s\n", result.Username, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL (prompted when omitted)")
	return cmd
}

func promptServerURL(in io.Reader, out io.Writer, current string) (string, error) {
	reader := bufio.NewReader(in)
	for {
		if current != "" {
			fmt.Fprintf(out, "Server URL [%s]: ", current)
		} else {
			fmt.Fprint(out, "Server URL (e.g., http://192.168.1.100:8096): ")
		}
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			input = current
		}
		if input != "" {
			return input, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to read server URL: %w", err)
		}
		fmt.Fprintln(out, "Server URL cannot be empty. Please try again.")
	}
}
