package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexigraph/jobmon/internal/client"
	"github.com/lexigraph/jobmon/internal/joblist"
	"github.com/lexigraph/jobmon/internal/models"
)

var listFollow bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the server's jobs at a coarse interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusClient := client.New(cfg.ServerURL, cfg.Timeout())
		tracker := joblist.NewTracker(statusClient, cfg.ListPollEvery())
		tracker.Refresh()

		if !listFollow {
			printSummaries(tracker.Jobs())
			return nil
		}

		tracker.Start()
		defer tracker.Stop()

		ticker := time.NewTicker(cfg.ListPollEvery())
		defer ticker.Stop()
		for {
			printSummaries(tracker.Jobs())
			select {
			case <-cmd.Context().Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listFollow, "follow", "f", false, "Keep refreshing until interrupted")
}

func printSummaries(summaries []models.JobSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tKIND\tSTATUS\tPROGRESS\tUPDATED")
	for _, s := range summaries {
		updated := ""
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Local().Format(time.TimeOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\n", s.JobID, s.Kind, s.Status, s.OverallProgressPct, updated)
	}
	w.Flush()
}
