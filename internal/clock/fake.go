package clock

import (
	"sync"
	"time"
)

// Recording is a Clock for tests. After records the requested duration,
// advances the clock by it and fires immediately.
type Recording struct {
	mu      sync.Mutex
	current time.Time
	waits   []time.Duration
}

// NewRecording returns a Recording clock starting at start.
func NewRecording(start time.Time) *Recording {
	return &Recording{current: start}
}

func (r *Recording) Now() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Recording) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.current = r.current.Add(d)
	now := r.current
	r.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Waits returns every duration passed to After, in call order.
func (r *Recording) Waits() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}
