package monitor

import "sync"

// Binder ties a controller's lifetime to an external open/close signal,
// typically a dialog or a CLI session. It guarantees that no polling loop
// outlives its owner: Close (or Open with an empty id) always lands in
// Controller.Stop, across any number of open/close cycles or job id
// changes.
type Binder struct {
	mu    sync.Mutex
	ctrl  *Controller
	open  bool
	jobID string
}

func NewBinder(ctrl *Controller) *Binder {
	return &Binder{ctrl: ctrl}
}

// Open starts monitoring jobID. An empty id is treated as Close. Reopening
// the same id while already open is a no-op; a different id stops the old
// loop and starts a fresh one, so one binder never polls two jobs at once.
func (b *Binder) Open(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if jobID == "" {
		b.closeLocked()
		return
	}
	if b.open && b.jobID == jobID {
		return
	}
	b.open = true
	b.jobID = jobID
	b.ctrl.Start(jobID)
}

// Close stops monitoring. Safe to call unconditionally on teardown,
// whether or not anything is open.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

// IsOpen reports whether a job is currently being monitored.
func (b *Binder) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *Binder) closeLocked() {
	b.open = false
	b.jobID = ""
	b.ctrl.Stop()
}
