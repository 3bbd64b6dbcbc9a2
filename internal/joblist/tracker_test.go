package joblist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/jobmon/internal/joblist"
	"github.com/lexigraph/jobmon/internal/models"
)

type fakeLister struct {
	mu        sync.Mutex
	summaries []models.JobSummary
	err       error
	calls     int
}

func (f *fakeLister) ListJobs(ctx context.Context) ([]models.JobSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.JobSummary(nil), f.summaries...), nil
}

func (f *fakeLister) set(summaries []models.JobSummary, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = summaries
	f.err = err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestTracker_RefreshFoldsSummaries(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]models.JobSummary{
		{JobID: "b", Status: models.StatusProcessing, OverallProgressPct: 30},
		{JobID: "a", Status: models.StatusPending},
	}, nil)

	tracker := joblist.NewTracker(lister, time.Second)
	tracker.Refresh()

	jobs := tracker.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].JobID, "summaries are ordered by job id")
	assert.Equal(t, "b", jobs[1].JobID)
}

func TestTracker_FailedRefreshKeepsPreviousState(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]models.JobSummary{{JobID: "a", Status: models.StatusProcessing}}, nil)

	tracker := joblist.NewTracker(lister, time.Second)
	tracker.Refresh()
	require.Len(t, tracker.Jobs(), 1)

	lister.set(nil, errors.New("gateway timeout"))
	tracker.Refresh()
	assert.Len(t, tracker.Jobs(), 1, "a failed list fetch must not blank the tracked set")
}

func TestTracker_TerminalJobsRetainedUntilPrune(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]models.JobSummary{
		{JobID: "a", Status: models.StatusProcessing},
		{JobID: "b", Status: models.StatusCompleted},
		{JobID: "c", Status: models.StatusError},
	}, nil)

	tracker := joblist.NewTracker(lister, time.Second)
	tracker.Refresh()

	assert.Len(t, tracker.Jobs(), 3)
	active := tracker.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].JobID)

	tracker.Prune()
	jobs := tracker.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].JobID)
}

func TestTracker_StartSchedulesPeriodicRefresh(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]models.JobSummary{{JobID: "a", Status: models.StatusProcessing}}, nil)

	tracker := joblist.NewTracker(lister, time.Second)
	tracker.Start()
	defer tracker.Stop()

	require.Eventually(t, func() bool { return lister.callCount() >= 1 }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return len(tracker.Jobs()) == 1 }, 5*time.Second, 20*time.Millisecond)

	// Start twice does not double the schedule; Stop twice is a no-op.
	tracker.Start()
	tracker.Stop()
	assert.NotPanics(t, tracker.Stop)
}
