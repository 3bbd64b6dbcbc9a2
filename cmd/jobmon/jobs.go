package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexigraph/jobmon/internal/client"
)

var startKind string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Ask the server to begin a new job",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusClient := client.New(cfg.ServerURL, cfg.Timeout())
		jobID, err := statusClient.StartJob(cmd.Context(), startKind)
		if err != nil {
			return err
		}
		fmt.Println(jobID)
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <job-id>",
	Short: "Reprocess a finished or failed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statusClient := client.New(cfg.ServerURL, cfg.Timeout())
		if err := statusClient.RestartJob(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("restarted %s\n", args[0])
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&startKind, "kind", "extraction", "Job kind: extraction or ontology")
}
