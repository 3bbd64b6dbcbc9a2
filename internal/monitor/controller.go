// Package monitor owns the polling loop for a single long-running job and
// the lifecycle glue that starts and stops it against an open/close signal.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/progress"
)

// Fetcher is the transport collaborator: it retrieves the raw status
// payload for one job. internal/client provides the HTTP implementation;
// tests substitute scripted fakes.
type Fetcher interface {
	FetchJobStatus(ctx context.Context, jobID string) (models.RawSnapshot, error)
}

const defaultRequestTimeout = 15 * time.Second

// Controller polls one job's status on a fixed interval and holds the
// latest JobProgress. It owns its ticker outright: there is at most one
// polling loop per controller, a second Start supersedes the first, and
// Stop is idempotent. Results from a superseded Start carry a stale
// generation and are discarded, so a slow response for a previous job can
// never overwrite the current one.
type Controller struct {
	fetcher  Fetcher
	interval time.Duration
	timeout  time.Duration
	onUpdate func(*models.JobProgress)

	mu         sync.Mutex
	jobID      string
	generation uint64
	bound      bool // Start called and not yet Stop'd; survives a terminal idle
	running    bool // ticker loop currently active
	stop       chan struct{}
	current    *models.JobProgress
	loading    bool // true only while the very first fetch is in flight
	failures   int  // consecutive failed polls
}

// NewController creates a controller that polls via fetcher every
// interval. onUpdate, if non-nil, is invoked with each stored snapshot
// (including the terminal one) outside the controller's lock.
func NewController(fetcher Fetcher, interval time.Duration, onUpdate func(*models.JobProgress)) *Controller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Controller{
		fetcher:  fetcher,
		interval: interval,
		timeout:  defaultRequestTimeout,
		onUpdate: onUpdate,
	}
}

// SetRequestTimeout bounds each individual status fetch. Call before Start.
func (c *Controller) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Start begins polling jobID: one immediate fetch, then one per interval.
// If a loop is already running, for this or any other job, it is stopped
// first and its in-flight results invalidated.
func (c *Controller) Start(jobID string) {
	c.mu.Lock()
	c.stopLocked()
	c.generation++
	c.jobID = jobID
	c.bound = true
	c.current = nil
	c.loading = true
	c.failures = 0
	gen := c.generation
	stop := make(chan struct{})
	c.stop = stop
	c.running = true
	c.mu.Unlock()

	go c.run(jobID, gen, stop)
}

// Stop cancels the polling loop, invalidates any in-flight fetch, and
// discards the held snapshot; a closed view does not keep stale progress
// around. Calling it when nothing is running is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.bound = false
	c.loading = false
	c.current = nil
	c.stopLocked()
}

// Refresh issues one immediate out-of-band fetch for the bound job. Its
// purpose is the restart path: after the user reprocesses a job that had
// already gone terminal, the refreshed snapshot comes back non-terminal
// and re-arms the interval loop.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if !c.bound {
		c.mu.Unlock()
		return
	}
	jobID, gen := c.jobID, c.generation
	c.mu.Unlock()

	go c.poll(jobID, gen)
}

// Apply ingests a snapshot produced outside the polling loop, e.g. by the
// websocket push source. Snapshots for a job other than the bound one are
// discarded.
func (c *Controller) Apply(snap *models.JobProgress) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	if !c.bound || snap.JobID != c.jobID {
		c.mu.Unlock()
		return
	}
	cb := c.storeLocked(snap)
	c.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// Snapshot returns the latest JobProgress, or nil before the first
// successful poll.
func (c *Controller) Snapshot() *models.JobProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Loading reports whether the very first fetch is still in flight.
// Subsequent background polls do not toggle it, so a consumer can show a
// one-time spinner without flicker.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Running reports whether the interval loop is active. A controller idling
// on a terminal snapshot is bound but not running.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// JobID returns the currently bound job id, or "" when unbound.
func (c *Controller) JobID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bound {
		return ""
	}
	return c.jobID
}

// ConsecutiveFailures returns the number of failed polls, transport errors
// and malformed payloads both, since the last stored snapshot. The
// controller never stops on failures itself; callers wanting a cutoff can
// watch this.
func (c *Controller) ConsecutiveFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

func (c *Controller) run(jobID string, gen uint64, stop chan struct{}) {
	c.poll(jobID, gen)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.poll(jobID, gen)
		}
	}
}

// poll performs one fetch and folds the result into the controller. A
// result whose generation no longer matches is dropped unprocessed.
func (c *Controller) poll(jobID string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	raw, err := c.fetcher.FetchJobStatus(ctx, jobID)
	cancel()

	var snap *models.JobProgress
	if err == nil {
		snap, err = progress.Normalize(raw, jobID)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}

	if err != nil {
		// Transport failures and malformed payloads are swallowed alike:
		// the last-known snapshot is kept and the next tick retries.
		c.failures++
		c.loading = false
		n := c.failures
		c.mu.Unlock()
		log.Printf("monitor: status poll for job %s failed (%d consecutive): %v", jobID, n, err)
		return
	}

	c.failures = 0
	cb := c.storeLocked(snap)
	c.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// storeLocked records a snapshot, stopping the loop on a terminal status
// and re-arming it when a non-terminal status shows up while idle (the job
// was restarted server-side). Returns the update callback to invoke after
// unlocking, or nil.
func (c *Controller) storeLocked(snap *models.JobProgress) func(*models.JobProgress) {
	c.current = snap
	c.loading = false

	if progress.IsTerminal(snap.Status) {
		c.stopLocked()
	} else if !c.running && c.bound {
		stop := make(chan struct{})
		c.stop = stop
		c.running = true
		go c.rearm(c.jobID, c.generation, stop)
	}
	return c.onUpdate
}

// rearm resumes interval polling without an immediate fetch; the snapshot
// that triggered the re-arm is already current.
func (c *Controller) rearm(jobID string, gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.poll(jobID, gen)
		}
	}
}

func (c *Controller) stopLocked() {
	if c.running {
		close(c.stop)
		c.running = false
	}
}
