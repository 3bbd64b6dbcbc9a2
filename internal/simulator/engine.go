// Package simulator fakes the ingestion server for local development and
// integration tests: it runs chunked jobs on a timer and serves their
// status over the same REST/websocket surface the real server exposes.
package simulator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/websocket"
)

const (
	KindExtraction = "extraction"
	KindOntology   = "ontology"
)

// counterNames returns the result counters a job kind accumulates.
func counterNames(kind string) []string {
	if kind == KindOntology {
		return []string{"entities", "triples"}
	}
	return []string{"nodes", "relationships"}
}

type chunk struct {
	status models.JobStatus
	counts map[string]int
}

// job is the engine's record of one simulated run. All access goes through
// the engine's mutex.
type job struct {
	id           string
	kind         string
	status       models.JobStatus
	chunks       []chunk
	currentChunk int
	failAt       int // chunk index that errors, -1 for none
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
	completedAt  time.Time
}

// Engine runs simulated jobs. Each job advances one chunk per
// chunkDuration; every state change is broadcast through the hub.
type Engine struct {
	mu            sync.Mutex
	jobs          map[string]*job
	order         []string
	hub           *websocket.Hub
	chunkDuration time.Duration
}

// NewEngine creates an engine. hub may be nil when no push subscribers are
// expected (unit tests).
func NewEngine(hub *websocket.Hub, chunkDuration time.Duration) *Engine {
	if chunkDuration <= 0 {
		chunkDuration = 1500 * time.Millisecond
	}
	return &Engine{
		jobs:          make(map[string]*job),
		hub:           hub,
		chunkDuration: chunkDuration,
	}
}

// SetChunkDuration changes the pace of chunk advancement. Jobs pick up the
// new duration before their next sleep; a job already mid-sleep finishes
// that sleep at the old pace.
func (e *Engine) SetChunkDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	e.chunkDuration = d
	e.mu.Unlock()
}

func (e *Engine) tick() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chunkDuration
}

// StartJob begins a new simulated job and returns its id. totalChunks
// defaults to 4; failAt marks the chunk that will error, -1 for a clean
// run.
func (e *Engine) StartJob(kind string, totalChunks, failAt int) string {
	if kind != KindOntology {
		kind = KindExtraction
	}
	if totalChunks < 1 {
		totalChunks = 4
	}

	now := time.Now().UTC()
	j := &job{
		id:        uuid.New().String(),
		kind:      kind,
		status:    models.StatusPending,
		chunks:    make([]chunk, totalChunks),
		failAt:    failAt,
		createdAt: now,
		updatedAt: now,
	}
	for i := range j.chunks {
		j.chunks[i].status = models.StatusPending
	}

	e.mu.Lock()
	e.jobs[j.id] = j
	e.order = append(e.order, j.id)
	e.mu.Unlock()

	go e.run(j.id)
	return j.id
}

// Restart flips a terminal job back into processing and reruns its chunks
// from the beginning. The failure injection is cleared so a restarted run
// completes.
func (e *Engine) Restart(jobID string) error {
	e.mu.Lock()
	j, ok := e.jobs[jobID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("job %s not found", jobID)
	}
	if j.status != models.StatusCompleted && j.status != models.StatusError {
		e.mu.Unlock()
		return fmt.Errorf("job %s is still running", jobID)
	}

	j.status = models.StatusPending
	j.currentChunk = 0
	j.failAt = -1
	j.errorMessage = ""
	j.completedAt = time.Time{}
	j.updatedAt = time.Now().UTC()
	for i := range j.chunks {
		j.chunks[i] = chunk{status: models.StatusPending}
	}
	e.broadcastLocked(j)
	e.mu.Unlock()

	go e.run(jobID)
	return nil
}

// Snapshot builds the loose status payload for one job, in the same shape
// the real ingestion server produces.
func (e *Engine) Snapshot(jobID string) (models.RawSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[jobID]
	if !ok {
		return nil, false
	}
	return e.snapshotLocked(j), true
}

// List returns coarse summaries of every job, oldest first.
func (e *Engine) List() []models.JobSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	summaries := make([]models.JobSummary, 0, len(e.order))
	for _, id := range e.order {
		j := e.jobs[id]
		summaries = append(summaries, models.JobSummary{
			JobID:              j.id,
			Kind:               j.kind,
			Status:             j.status,
			OverallProgressPct: progressPct(j),
			UpdatedAt:          j.updatedAt,
		})
	}
	return summaries
}

func (e *Engine) run(jobID string) {
	// Brief pending phase before the first chunk starts.
	time.Sleep(e.tick() / 3)
	for {
		if done := e.advance(jobID); done {
			return
		}
		time.Sleep(e.tick())
	}
}

// advance moves one chunk forward and reports whether the job reached a
// terminal state (or vanished under a restart).
func (e *Engine) advance(jobID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, ok := e.jobs[jobID]
	if !ok {
		return true
	}

	switch j.status {
	case models.StatusPending:
		j.status = models.StatusProcessing
		j.chunks[0].status = models.StatusProcessing
	case models.StatusProcessing:
		i := j.currentChunk
		if i == j.failAt {
			j.chunks[i].status = models.StatusError
			j.status = models.StatusError
			j.errorMessage = fmt.Sprintf("chunk %d failed: malformed document segment", i)
			j.completedAt = time.Now().UTC()
		} else {
			j.chunks[i].status = models.StatusCompleted
			j.chunks[i].counts = randomCounts(j.kind)
			j.currentChunk++
			if j.currentChunk >= len(j.chunks) {
				j.status = models.StatusCompleted
				j.completedAt = time.Now().UTC()
			} else {
				j.chunks[j.currentChunk].status = models.StatusProcessing
			}
		}
	default:
		// Terminal; a restart spawned a fresh run goroutine.
		return true
	}

	j.updatedAt = time.Now().UTC()
	e.broadcastLocked(j)
	return j.status == models.StatusCompleted || j.status == models.StatusError
}

func (e *Engine) broadcastLocked(j *job) {
	if e.hub != nil {
		e.hub.BroadcastJSON(e.snapshotLocked(j))
	}
}

func (e *Engine) snapshotLocked(j *job) models.RawSnapshot {
	totals := make(map[string]int)
	chunkList := make([]any, 0, len(j.chunks))
	processed := 0
	for _, c := range j.chunks {
		entry := map[string]any{"status": string(c.status)}
		for name, n := range c.counts {
			entry[name+"_count"] = n
			totals[name] += n
		}
		chunkList = append(chunkList, entry)
		if c.status == models.StatusCompleted {
			processed++
		}
	}

	meta := map[string]any{
		"total_chunks":        len(j.chunks),
		"processed_chunks":    processed,
		"current_chunk_index": j.currentChunk,
		"chunk_progress":      chunkList,
		"created_at":          j.createdAt.Format(time.RFC3339),
		"updated_at":          j.updatedAt.Format(time.RFC3339),
	}
	for _, name := range counterNames(j.kind) {
		if n, ok := totals[name]; ok {
			meta[name+"_count"] = n
		}
	}
	if j.errorMessage != "" {
		meta["error_message"] = j.errorMessage
	}
	if !j.completedAt.IsZero() {
		meta["completed_at"] = j.completedAt.Format(time.RFC3339)
	}

	return models.RawSnapshot{
		"job_id":              j.id,
		"kind":                j.kind,
		"status":              string(j.status),
		"progress_percentage": progressPct(j),
		"metadata":            meta,
	}
}

func progressPct(j *job) int {
	done := 0
	for _, c := range j.chunks {
		if c.status == models.StatusCompleted {
			done++
		}
	}
	return done * 100 / len(j.chunks)
}

func randomCounts(kind string) map[string]int {
	counts := make(map[string]int)
	for _, name := range counterNames(kind) {
		counts[name] = 1 + rand.Intn(20)
	}
	return counts
}
