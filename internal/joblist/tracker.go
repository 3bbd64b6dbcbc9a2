// Package joblist tracks the coarse state of all jobs the server knows
// about, the way the dashboard's list views do: a slow poll of the list
// endpoint rather than fine-grained per-job monitoring.
package joblist

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/progress"
)

// Lister fetches the server's job summaries. internal/client implements it.
type Lister interface {
	ListJobs(ctx context.Context) ([]models.JobSummary, error)
}

// Tracker polls the job list on a coarse interval and keeps the latest
// summary per job id. Jobs that go terminal keep their final summary until
// Prune is called, so a list view can still show finished runs.
type Tracker struct {
	mu        sync.Mutex
	lister    Lister
	interval  time.Duration
	scheduler *gocron.Scheduler
	jobs      map[string]models.JobSummary
}

func NewTracker(lister Lister, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Tracker{
		lister:   lister,
		interval: interval,
		jobs:     make(map[string]models.JobSummary),
	}
}

// Start schedules the periodic list refresh. A refresh that is still
// running when the next slot arrives is not doubled up.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scheduler != nil {
		return
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(t.interval).Do(t.Refresh); err != nil {
		log.Printf("joblist: error scheduling list refresh: %v", err)
		return
	}
	s.StartAsync()
	t.scheduler = s
}

// Stop cancels the periodic refresh. Idempotent.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scheduler != nil {
		t.scheduler.Stop()
		t.scheduler = nil
	}
}

// Refresh fetches the list once and folds it into the tracked set. Fetch
// failures leave the previous summaries untouched.
func (t *Tracker) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), t.interval)
	summaries, err := t.lister.ListJobs(ctx)
	cancel()
	if err != nil {
		log.Printf("joblist: list refresh failed: %v", err)
		return
	}

	t.mu.Lock()
	for _, s := range summaries {
		t.jobs[s.JobID] = s
	}
	t.mu.Unlock()
}

// Jobs returns the tracked summaries ordered by job id.
func (t *Tracker) Jobs() []models.JobSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.JobSummary, 0, len(t.jobs))
	for _, s := range t.jobs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

// Active returns only the jobs that are still running.
func (t *Tracker) Active() []models.JobSummary {
	var active []models.JobSummary
	for _, s := range t.Jobs() {
		if !progress.IsTerminal(s.Status) {
			active = append(active, s)
		}
	}
	return active
}

// Prune drops terminal jobs from the tracked set.
func (t *Tracker) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.jobs {
		if progress.IsTerminal(s.Status) {
			delete(t.jobs, id)
		}
	}
}
