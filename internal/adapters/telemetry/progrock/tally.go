package progrock

import (
	"sync"

	"github.com/vito/progrock"
)

var _ progrock.Writer = (*Tally)(nil)

// Tally is a progrock.Writer that counts completed vertices.
// It keeps only vertex IDs, so memory stays flat regardless of log volume.
type Tally struct {
	mu        sync.Mutex
	started   map[string]struct{}
	completed map[string]struct{}
	failed    int
	closed    bool
}

// NewTally creates an empty Tally.
func NewTally() *Tally {
	return &Tally{
		started:   make(map[string]struct{}),
		completed: make(map[string]struct{}),
	}
}

// WriteStatus folds an update into the counters.
func (t *Tally) WriteStatus(update *progrock.StatusUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, v := range update.Vertexes {
		t.started[v.Id] = struct{}{}
		if v.Completed == nil {
			continue
		}
		if _, seen := t.completed[v.Id]; seen {
			continue
		}
		t.completed[v.Id] = struct{}{}
		if v.Error != nil {
			t.failed++
		}
	}
	return nil
}

// Close marks the tally as finished.
func (t *Tally) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Counts returns how many vertices were started, completed and failed.
func (t *Tally) Counts() (started, completed, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.started), len(t.completed), t.failed
}

// Closed reports whether Close was called.
func (t *Tally) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
