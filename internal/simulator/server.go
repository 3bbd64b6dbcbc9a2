package simulator

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lexigraph/jobmon/internal/websocket"
)

// Server exposes the simulated ingestion API.
type Server struct {
	engine *Engine
	hub    *websocket.Hub
}

func NewServer(engine *Engine, hub *websocket.Hub) *Server {
	return &Server{engine: engine, hub: hub}
}

// Router sets up and returns the simulator's HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/jobs", s.handleStartJob)
	r.Get("/api/jobs", s.handleListJobs)
	r.Get("/api/jobs/{jobID}/status", s.handleJobStatus)
	r.Post("/api/jobs/{jobID}/restart", s.handleRestartJob)
	r.Get("/ws/jobs", s.handleJobUpdates)

	return r
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind        string `json:"kind"`
		TotalChunks int    `json:"total_chunks"`
		FailAtChunk *int   `json:"fail_at_chunk"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	failAt := -1
	if req.FailAtChunk != nil {
		failAt = *req.FailAtChunk
	}
	jobID := s.engine.StartJob(req.Kind, req.TotalChunks, failAt)
	writeJSON(w, http.StatusCreated, map[string]string{"job_id": jobID})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.List())
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	snapshot, ok := s.engine.Snapshot(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleRestartJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.engine.Restart(jobID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
}

func (s *Server) handleJobUpdates(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(s.hub, w, r)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

// writeError keeps the error body shape clients parse: {"error": "..."}.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
