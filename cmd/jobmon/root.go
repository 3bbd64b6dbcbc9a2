package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexigraph/jobmon/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "jobmon",
	Short:         "Monitor long-running extraction and ontology jobs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
			cfg.ServerURL = serverURL
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)

	rootCmd.PersistentFlags().String("server", "", "Ingestion server URL (overrides config)")
	rootCmd.AddCommand(watchCmd, listCmd, startCmd, restartCmd, simulateCmd)
	return rootCmd.ExecuteContext(ctx)
}

// feedURL derives the websocket push endpoint from the server URL.
func feedURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/jobs"
	return u.String(), nil
}
