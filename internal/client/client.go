// Package client talks to the ingestion server's job status API. It is the
// concrete transport behind monitor.Fetcher and joblist's Lister.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lexigraph/jobmon/internal/models"
)

// TransportError wraps any failure to reach the status endpoint or to get
// a usable response from it. The monitor treats these as transient and
// retries on the next tick.
type TransportError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("status request %s returned HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("status request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusClient is an HTTP client for the job API.
type StatusClient struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the server at baseURL (no trailing slash
// required). timeout bounds each request; zero means 15s.
func New(baseURL string, timeout time.Duration) *StatusClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StatusClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// FetchJobStatus retrieves the raw status payload for one job. The decoded
// body is returned as-is; defaulting and coercion belong to the normalizer.
func (c *StatusClient) FetchJobStatus(ctx context.Context, jobID string) (models.RawSnapshot, error) {
	var raw models.RawSnapshot
	url := fmt.Sprintf("%s/api/jobs/%s/status", c.baseURL, jobID)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ListJobs retrieves the coarse summaries of all jobs the server tracks.
func (c *StatusClient) ListJobs(ctx context.Context) ([]models.JobSummary, error) {
	var jobs []models.JobSummary
	url := fmt.Sprintf("%s/api/jobs", c.baseURL)
	if err := c.getJSON(ctx, url, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// StartJob asks the server to begin a new job of the given kind and
// returns its id.
func (c *StatusClient) StartJob(ctx context.Context, kind string) (string, error) {
	url := fmt.Sprintf("%s/api/jobs", c.baseURL)
	body, _ := json.Marshal(map[string]string{"kind": kind})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	var created struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", &TransportError{URL: url, Err: err}
	}
	return created.JobID, nil
}

// RestartJob asks the server to reprocess a job that already ran. The
// monitor picks the regression up on its next fetch (or via Refresh).
func (c *StatusClient) RestartJob(ctx context.Context, jobID string) error {
	url := fmt.Sprintf("%s/api/jobs/%s/restart", c.baseURL, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &TransportError{URL: url, StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *StatusClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{URL: url, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{URL: url, Err: err}
	}
	return nil
}
