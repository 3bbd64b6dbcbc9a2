// Package push is the event-driven alternative to polling: it subscribes
// to the server's websocket feed and delivers the same JobProgress
// snapshots the polling controller would produce, without fixed-interval
// requests.
package push

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lexigraph/jobmon/internal/models"
	"github.com/lexigraph/jobmon/internal/progress"
)

const redialDelay = 2 * time.Second

// Subscribe dials the websocket feed at wsURL and delivers every snapshot
// for jobID to apply, dropping frames for other jobs. It returns nil once
// a terminal snapshot for the job has been delivered, or ctx.Err() when
// the context is cancelled. Connection failures trigger a redial after a
// short delay; they never surface to the caller.
func Subscribe(ctx context.Context, wsURL, jobID string, apply func(*models.JobProgress)) error {
	for {
		terminal, err := readFeed(ctx, wsURL, jobID, apply)
		if terminal {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			log.Printf("push: feed %s dropped: %v", wsURL, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(redialDelay):
		}
	}
}

// readFeed holds one connection open and processes frames until it breaks,
// the context ends, or a terminal snapshot arrives.
func readFeed(ctx context.Context, wsURL, jobID string, apply func(*models.JobProgress)) (terminal bool, err error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Unblock ReadJSON when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var raw models.RawSnapshot
		if err := conn.ReadJSON(&raw); err != nil {
			return false, err
		}
		id, _ := raw["job_id"].(string)
		if id != jobID {
			continue
		}

		snap, err := progress.Normalize(raw, jobID)
		if err != nil {
			// A frame without a recognizable status is dropped; the
			// subscriber keeps whatever snapshot it last saw.
			continue
		}
		apply(snap)
		if progress.IsTerminal(snap.Status) {
			return true, nil
		}
	}
}
