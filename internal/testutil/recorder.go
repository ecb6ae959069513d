package testutil

import (
	"sync"

	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

// Change is an event reduced to comparable text.
type Change struct {
	Seq    int64
	Op     track.Op
	Path   string
	Method string
	Old    string
	New    string
}

// Recorder collects change events. Its Observe method is a track.Observer.
type Recorder struct {
	mu     sync.Mutex
	events []track.Event

	// Fail, when set, is returned from Observe after the event is recorded.
	Fail error
}

// Observe records ev.
func (r *Recorder) Observe(ev track.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Fail
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []track.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]track.Event(nil), r.events...)
}

// Changes returns the recorded events with values rendered by value.Display.
func (r *Recorder) Changes() []Change {
	events := r.Events()
	out := make([]Change, 0, len(events))
	for _, ev := range events {
		out = append(out, Change{
			Seq:    ev.Seq,
			Op:     ev.Op,
			Path:   ev.Path,
			Method: ev.Method,
			Old:    value.Display(ev.Old),
			New:    value.Display(ev.New),
		})
	}
	return out
}

// Paths returns the path of every recorded event in order.
func (r *Recorder) Paths() []string {
	events := r.Events()
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Path)
	}
	return out
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
