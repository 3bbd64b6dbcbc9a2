package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lexigraph/jobmon/internal/client"
	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/monitor"
	"github.com/lexigraph/jobmon/internal/push"
)

var watchUsePush bool

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow a job's progress until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID := args[0]
		program := tea.NewProgram(newWatchModel(jobID))

		if watchUsePush {
			wsURL, err := feedURL(cfg.ServerURL)
			if err != nil {
				return err
			}
			go func() {
				err := push.Subscribe(cmd.Context(), wsURL, jobID, func(snap *models.JobProgress) {
					program.Send(snapshotMsg{snap: snap})
				})
				program.Send(feedClosedMsg{err: err})
			}()
		} else {
			statusClient := client.New(cfg.ServerURL, cfg.Timeout())
			ctrl := monitor.NewController(statusClient, cfg.PollEvery(), func(snap *models.JobProgress) {
				program.Send(snapshotMsg{snap: snap})
			})
			ctrl.SetRequestTimeout(cfg.Timeout())

			binder := monitor.NewBinder(ctrl)
			binder.Open(jobID)
			defer binder.Close()
		}

		final, err := program.Run()
		if err != nil {
			return err
		}
		if m, ok := final.(watchModel); ok && m.snap != nil && m.snap.Status == models.StatusError {
			return fmt.Errorf("job %s failed: %s", jobID, m.snap.ErrorMessage)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchUsePush, "push", false, "Subscribe to the websocket feed instead of polling")
}
