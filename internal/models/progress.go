package models

import "time"

// JobStatus is the lifecycle state reported by the server for a job or a
// single chunk of its work. The server is the sole authority over these
// values; the client only classifies them.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// ChunkState tracks one unit of a job's partitioned work.
type ChunkState struct {
	Status JobStatus      `json:"status"`
	Counts map[string]int `json:"counts,omitempty"` // job-kind-specific counters, e.g. "nodes"
}

// JobProgress is a complete snapshot of a job's state as of one poll.
// It is replaced wholesale on every update, never merged field by field.
type JobProgress struct {
	JobID              string         `json:"job_id"`
	Status             JobStatus      `json:"status"`
	TotalChunks        int            `json:"total_chunks"`
	ProcessedChunks    int            `json:"processed_chunks"`
	CurrentChunkIndex  int            `json:"current_chunk_index"`
	ChunkProgress      []ChunkState   `json:"chunk_progress,omitempty"`
	OverallProgressPct int            `json:"overall_progress_pct"`
	ResultCounts       map[string]int `json:"result_counts,omitempty"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	CreatedAt          time.Time      `json:"created_at,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at,omitempty"`
	CompletedAt        time.Time      `json:"completed_at,omitempty"`
}

// JobSummary is the coarse, list-level view of a job used by the
// active-jobs tracker.
type JobSummary struct {
	JobID              string    `json:"job_id"`
	Kind               string    `json:"kind"`
	Status             JobStatus `json:"status"`
	OverallProgressPct int       `json:"overall_progress_pct"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}
