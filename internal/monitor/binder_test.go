package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigraph/jobmon/internal/monitor"
	"github.com/lexigraph/jobmon/internal/testutil"
)

func TestBinder_OpenStartsAndCloseStops(t *testing.T) {
	f := testutil.NewScriptedFetcher(testutil.FetchStep{Raw: processingRaw(25)})
	ctrl := monitor.NewController(f, 20*time.Millisecond, nil)
	b := monitor.NewBinder(ctrl)

	b.Open("job-1")
	assert.True(t, b.IsOpen())
	waitForCalls(t, f, 2)
	assert.True(t, ctrl.Running())

	b.Close()
	assert.False(t, b.IsOpen())
	assert.False(t, ctrl.Running())
	assert.Nil(t, ctrl.Snapshot(), "closing the view discards the snapshot")

	settled := f.CallCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, f.CallCount(), "polling after Close")
}

func TestBinder_EmptyJobIDActsAsClose(t *testing.T) {
	f := testutil.NewScriptedFetcher(testutil.FetchStep{Raw: processingRaw(25)})
	ctrl := monitor.NewController(f, 20*time.Millisecond, nil)
	b := monitor.NewBinder(ctrl)

	b.Open("job-1")
	waitForCalls(t, f, 1)

	b.Open("")
	assert.False(t, b.IsOpen())
	assert.False(t, ctrl.Running(), "zero pending timers after open with empty id")
}

func TestBinder_JobIDChangeSwitchesTarget(t *testing.T) {
	f := testutil.NewScriptedFetcher(testutil.FetchStep{Raw: processingRaw(25)})
	ctrl := monitor.NewController(f, time.Hour, nil)
	b := monitor.NewBinder(ctrl)
	defer b.Close()

	b.Open("job-a")
	waitForCalls(t, f, 1)
	b.Open("job-b")
	waitForCalls(t, f, 1)

	assert.Equal(t, "job-b", ctrl.JobID())
	assert.Equal(t, []string{"job-a", "job-b"}, f.JobIDs())

	// Reopening the bound id does not restart the loop.
	b.Open("job-b")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, f.CallCount())
}

func TestBinder_RepeatedOpenCloseCyclesLeakNothing(t *testing.T) {
	f := testutil.NewScriptedFetcher(testutil.FetchStep{Raw: processingRaw(25)})
	ctrl := monitor.NewController(f, 15*time.Millisecond, nil)
	b := monitor.NewBinder(ctrl)

	for i := 0; i < 5; i++ {
		b.Open("job-1")
		waitForCalls(t, f, 1)
		b.Close()
	}
	require.False(t, ctrl.Running())

	settled := f.CallCount()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, settled, f.CallCount(), "a stale loop survived an open/close cycle")

	// Close on an already-closed binder is a harmless no-op.
	assert.NotPanics(t, b.Close)
}
