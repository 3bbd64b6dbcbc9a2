package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/jobmon/internal/client"
	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/monitor"
	"github.com/lexigraph/jobmon/internal/testutil"
)

// End-to-end over HTTP: controller -> status client -> stub server.
func TestMonitor_OverHTTP(t *testing.T) {
	server := testutil.NewStatusServer(t, map[string]models.RawSnapshot{
		"job-1": {
			"status":              "processing",
			"progress_percentage": float64(50),
			"metadata": map[string]any{
				"total_chunks":     float64(4),
				"processed_chunks": float64(2),
				"chunk_progress": []any{
					map[string]any{"status": "completed"},
					map[string]any{"status": "completed"},
					map[string]any{"status": "processing"},
					map[string]any{"status": "pending"},
				},
			},
		},
	})

	statusClient := client.New(server.URL, 5*time.Second)
	ctrl := monitor.NewController(statusClient, 25*time.Millisecond, nil)
	binder := monitor.NewBinder(ctrl)

	binder.Open("job-1")
	defer binder.Close()

	require.Eventually(t, func() bool { return ctrl.Snapshot() != nil }, 5*time.Second, 10*time.Millisecond)
	snap := ctrl.Snapshot()
	assert.Equal(t, 50, snap.OverallProgressPct)
	assert.Equal(t, 2, snap.ProcessedChunks)
	assert.Len(t, snap.ChunkProgress, 4)

	// The server finishes the job; the monitor stores the terminal
	// snapshot and stops on its own.
	server.SetSnapshot("job-1", models.RawSnapshot{
		"status":              "completed",
		"progress_percentage": float64(100),
		"metadata": map[string]any{
			"total_chunks":        float64(4),
			"processed_chunks":    float64(4),
			"nodes_count":         float64(31),
			"relationships_count": float64(12),
		},
	})

	require.Eventually(t, func() bool {
		s := ctrl.Snapshot()
		return s != nil && s.Status == models.StatusCompleted && !ctrl.Running()
	}, 5*time.Second, 10*time.Millisecond)

	settled := server.Requests()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, server.Requests(), "no requests after the terminal snapshot")

	snap = ctrl.Snapshot()
	assert.Equal(t, map[string]int{"nodes": 31, "relationships": 12}, snap.ResultCounts)
}

// A job that the server reports as failed is valid terminal data: the
// error message is surfaced verbatim and polling ends.
func TestMonitor_JobFailureIsTerminalData(t *testing.T) {
	server := testutil.NewStatusServer(t, map[string]models.RawSnapshot{
		"job-9": {
			"status": "error",
			"metadata": map[string]any{
				"error_message": "ontology generation failed: model quota exceeded",
			},
		},
	})

	statusClient := client.New(server.URL, 5*time.Second)
	ctrl := monitor.NewController(statusClient, 20*time.Millisecond, nil)
	binder := monitor.NewBinder(ctrl)

	binder.Open("job-9")
	defer binder.Close()

	require.Eventually(t, func() bool { return ctrl.Snapshot() != nil && !ctrl.Running() }, 5*time.Second, 10*time.Millisecond)

	snap := ctrl.Snapshot()
	assert.Equal(t, models.StatusError, snap.Status)
	assert.Equal(t, "ontology generation failed: model quota exceeded", snap.ErrorMessage)
}
