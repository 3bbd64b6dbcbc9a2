package simulator_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/jobmon/internal/client"
	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/progress"
	"github.com/lexigraph/jobmon/internal/simulator"
	"github.com/lexigraph/jobmon/internal/websocket"
)

func setupServer(t *testing.T) (*httptest.Server, *client.StatusClient) {
	t.Helper()
	hub := websocket.NewHub()
	go hub.Run()

	engine := simulator.NewEngine(hub, 10*time.Millisecond)
	server := httptest.NewServer(simulator.NewServer(engine, hub).Router())
	t.Cleanup(server.Close)

	return server, client.New(server.URL, 5*time.Second)
}

func TestServer_JobLifecycleOverHTTP(t *testing.T) {
	_, c := setupServer(t)
	ctx := context.Background()

	jobID, err := c.StartJob(ctx, "extraction")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		raw, err := c.FetchJobStatus(ctx, jobID)
		if err != nil {
			return false
		}
		p, err := progress.Normalize(raw, jobID)
		return err == nil && p.Status == models.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	raw, err := c.FetchJobStatus(ctx, jobID)
	require.NoError(t, err)
	p, err := progress.Normalize(raw, jobID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.OverallProgressPct)
	assert.Equal(t, p.TotalChunks, p.ProcessedChunks)

	jobs, err := c.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].JobID)
	assert.Equal(t, models.StatusCompleted, jobs[0].Status)
}

func TestServer_StatusForUnknownJob(t *testing.T) {
	_, c := setupServer(t)

	_, err := c.FetchJobStatus(context.Background(), "no-such-job")
	var terr *client.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 404, terr.StatusCode)
}

func TestServer_RestartEndpoint(t *testing.T) {
	_, c := setupServer(t)
	ctx := context.Background()

	jobID, err := c.StartJob(ctx, "ontology")
	require.NoError(t, err)

	// Restarting a job that is still running is a conflict.
	err = c.RestartJob(ctx, jobID)
	var terr *client.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 409, terr.StatusCode)

	require.Eventually(t, func() bool {
		raw, err := c.FetchJobStatus(ctx, jobID)
		if err != nil {
			return false
		}
		p, err := progress.Normalize(raw, jobID)
		return err == nil && progress.IsTerminal(p.Status)
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, c.RestartJob(ctx, jobID))

	raw, err := c.FetchJobStatus(ctx, jobID)
	require.NoError(t, err)
	p, err := progress.Normalize(raw, jobID)
	require.NoError(t, err)
	assert.False(t, progress.IsTerminal(p.Status))
}
