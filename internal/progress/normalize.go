package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lexigraph/jobmon/internal/models"
)

// ErrUnknownStatus marks a payload that carries no recognizable top-level
// status. Such a payload cannot be told apart from garbage, so callers keep
// their previous snapshot instead of applying it.
var ErrUnknownStatus = errors.New("payload has no recognizable status")

// Normalize maps a raw status payload into a canonical JobProgress with
// every field populated. Defaulting is total for everything except the
// top-level status: missing numerics become 0, a missing total_chunks
// becomes 1 (an un-partitioned job is one implicit chunk), a missing chunk
// list becomes empty, and malformed values are coerced where possible and
// otherwise ignored. A payload whose status is absent or unrecognized is
// rejected outright; a later state would otherwise be wiped by a blank
// pending snapshot built from garbage.
func Normalize(raw models.RawSnapshot, jobID string) (*models.JobProgress, error) {
	status, ok := KnownStatus(asString(raw["status"]))
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrUnknownStatus)
	}
	meta := asMap(raw["metadata"])

	p := &models.JobProgress{
		JobID:  jobID,
		Status: status,
	}

	p.TotalChunks = asInt(meta["total_chunks"])
	if p.TotalChunks < 1 {
		p.TotalChunks = 1
	}
	p.ProcessedChunks = clamp(asInt(meta["processed_chunks"]), 0, p.TotalChunks)
	p.CurrentChunkIndex = clamp(asInt(meta["current_chunk_index"]), 0, p.TotalChunks-1)

	pct, ok := lookupInt(raw, "progress_percentage")
	if !ok {
		pct, _ = lookupInt(meta, "progress_percentage")
	}
	p.OverallProgressPct = clamp(pct, 0, 100)

	p.ChunkProgress = normalizeChunks(meta["chunk_progress"])
	p.ResultCounts = resultCounts(meta)

	if p.Status == models.StatusError {
		p.ErrorMessage = firstString(meta, raw, "error_message", "error")
	}

	p.CreatedAt = firstTime(meta, raw, "created_at")
	p.UpdatedAt = firstTime(meta, raw, "updated_at")
	p.CompletedAt = firstTime(meta, raw, "completed_at")

	return p, nil
}

func normalizeChunks(v any) []models.ChunkState {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	chunks := make([]models.ChunkState, 0, len(items))
	for _, item := range items {
		m := asMap(item)
		c := models.ChunkState{Status: ParseStatus(asString(m["status"]))}
		for key, val := range m {
			if name, isCount := counterName(key); isCount {
				if n, ok := coerceInt(val); ok && n >= 0 {
					if c.Counts == nil {
						c.Counts = make(map[string]int)
					}
					c.Counts[name] = n
				}
			}
		}
		chunks = append(chunks, c)
	}
	return chunks
}

// resultCounts collects named result counters from the metadata object.
// Counters come in two shapes: an explicit "result_counts" object, and
// flat "<name>_count" keys. Absent counters stay absent rather than being
// zeroed, so a consumer can tell "not applicable" from "zero so far".
func resultCounts(meta map[string]any) map[string]int {
	var counts map[string]int
	put := func(name string, v any) {
		n, ok := coerceInt(v)
		if !ok || n < 0 {
			return
		}
		if counts == nil {
			counts = make(map[string]int)
		}
		counts[name] = n
	}

	for key, val := range asMap(meta["result_counts"]) {
		put(key, val)
	}
	for key, val := range meta {
		if name, ok := counterName(key); ok {
			put(name, val)
		}
	}
	return counts
}

// counterName strips the "_count" suffix from flat counter keys, mapping
// e.g. "triples_count" to "triples".
func counterName(key string) (string, bool) {
	name, found := strings.CutSuffix(key, "_count")
	if !found || name == "" {
		return "", false
	}
	return name, true
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	n, _ := coerceInt(v)
	return n
}

func lookupInt(m map[string]any, key string) (int, bool) {
	v, present := m[key]
	if !present {
		return 0, false
	}
	return coerceInt(v)
}

// coerceInt accepts the numeric shapes a decoded JSON payload can carry.
func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func firstString(meta, raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(meta[key]); s != "" {
			return s
		}
		if s := asString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstTime(meta, raw map[string]any, key string) time.Time {
	if t, ok := coerceTime(meta[key]); ok {
		return t
	}
	t, _ := coerceTime(raw[key])
	return t
}

func coerceTime(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case string:
		if t, err := time.Parse(time.RFC3339, tv); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
