// A shared stub of the ingestion server's status API for client and
// integration tests.

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lexigraph/jobmon/internal/models"
)

// StatusServer is an httptest server speaking the job status API from a
// mutable in-memory snapshot table.
type StatusServer struct {
	*httptest.Server

	mu        sync.Mutex
	snapshots map[string]models.RawSnapshot
	summaries []models.JobSummary
	requests  int
}

// NewStatusServer starts a stub status server pre-loaded with snapshots,
// keyed by job id. It is shut down automatically when the test ends.
func NewStatusServer(t *testing.T, snapshots map[string]models.RawSnapshot) *StatusServer {
	t.Helper()
	s := &StatusServer{snapshots: make(map[string]models.RawSnapshot)}
	for id, raw := range snapshots {
		s.snapshots[id] = raw
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// SetSnapshot replaces the stored snapshot for a job.
func (s *StatusServer) SetSnapshot(jobID string, raw models.RawSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[jobID] = raw
}

// SetSummaries sets the list endpoint's response.
func (s *StatusServer) SetSummaries(summaries []models.JobSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = summaries
}

// Requests returns how many status requests the server has answered.
func (s *StatusServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *StatusServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++

	if r.URL.Path == "/api/jobs" {
		summaries := s.summaries
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, summaries)
		return
	}

	jobID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/status")
	raw, ok := s.snapshots[jobID]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
