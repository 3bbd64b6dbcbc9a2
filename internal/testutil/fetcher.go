// Shared test doubles for the monitor's transport collaborator.

package testutil

import (
	"context"
	"sync"

	"github.com/lexigraph/jobmon/internal/models"
)

// FetchStep is one scripted response: either a raw snapshot or an error.
type FetchStep struct {
	Raw models.RawSnapshot
	Err error
}

// ScriptedFetcher implements monitor.Fetcher from a fixed script. Once the
// script is exhausted the last step repeats, so a test can let the polling
// loop run without caring about the exact tick count. Every call is
// recorded and signalled on Calls.
type ScriptedFetcher struct {
	mu     sync.Mutex
	script []FetchStep
	jobIDs []string

	// Calls receives one value per fetch. Buffered generously so an
	// unread channel never blocks the loop under test.
	Calls chan string

	// Block, when non-nil, is closed by the test to release fetches that
	// should stay in flight.
	Block chan struct{}
}

func NewScriptedFetcher(script ...FetchStep) *ScriptedFetcher {
	return &ScriptedFetcher{
		script: script,
		Calls:  make(chan string, 256),
	}
}

func (f *ScriptedFetcher) FetchJobStatus(ctx context.Context, jobID string) (models.RawSnapshot, error) {
	f.mu.Lock()
	step := FetchStep{Raw: models.RawSnapshot{"status": "processing"}}
	if len(f.script) > 0 {
		step = f.script[0]
		if len(f.script) > 1 {
			f.script = f.script[1:]
		}
	}
	f.jobIDs = append(f.jobIDs, jobID)
	block := f.Block
	f.mu.Unlock()

	select {
	case f.Calls <- jobID:
	default:
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return step.Raw, step.Err
}

// CallCount returns how many fetches have been issued so far.
func (f *ScriptedFetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobIDs)
}

// JobIDs returns the job ids fetched, in order.
func (f *ScriptedFetcher) JobIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.jobIDs...)
}
