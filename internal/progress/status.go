// Package progress turns the server's loosely typed job status payloads
// into fully populated JobProgress snapshots and classifies statuses for
// polling control.
package progress

import (
	"strings"

	"github.com/lexigraph/jobmon/internal/models"
)

// KnownStatus maps a raw status string onto a JobStatus, reporting whether
// the string named one of the four statuses the server may report.
func KnownStatus(raw string) (models.JobStatus, bool) {
	s := models.JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, IsKnown(s)
}

// ParseStatus is the forgiving variant used for per-chunk statuses, where a
// payload is already known to be valid overall: unknown or empty strings
// map to pending rather than failing the whole snapshot.
func ParseStatus(raw string) models.JobStatus {
	if s, ok := KnownStatus(raw); ok {
		return s
	}
	return models.StatusPending
}

// IsTerminal reports whether a job in this status will see no further
// state changes. A terminal snapshot is the signal to stop polling.
func IsTerminal(s models.JobStatus) bool {
	return s == models.StatusCompleted || s == models.StatusError
}

// IsKnown reports whether s is one of the four statuses the server may
// report.
func IsKnown(s models.JobStatus) bool {
	switch s {
	case models.StatusPending, models.StatusProcessing, models.StatusCompleted, models.StatusError:
		return true
	}
	return false
}

// IsValidTransition classifies a status change. The server is authoritative
// and may report any status at any time, including a regression from a
// terminal status after the user restarts a job, so every transition
// between known statuses is legal. The only invalid transitions are ones
// involving a status the server could never report.
func IsValidTransition(prev, next models.JobStatus) bool {
	return IsKnown(prev) && IsKnown(next)
}
