package track

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/covert/internal/value"
)

// recorder collects events from one context.
type recorder struct {
	events []Event
}

func (r *recorder) observe(ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

// changes returns (path, old, new) triples for compact assertions.
func (r *recorder) changes() []change {
	out := make([]change, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, change{ev.Path, value.Display(ev.Old), value.Display(ev.New)})
	}
	return out
}

type change struct {
	Path string
	Old  string
	New  string
}

// coverWithRecorder covers root and attaches a recorder.
func coverWithRecorder(t *testing.T, root value.Value, opts ...Option) (value.Trackable, *recorder) {
	t.Helper()
	w, err := Cover(root, opts...)
	require.NoError(t, err)
	rec := &recorder{}
	_, err = Observe(w, rec.observe)
	require.NoError(t, err)
	return w.(value.Trackable), rec
}

// get reads key from w and requires success.
func get(t *testing.T, w value.Value, key string) value.Value {
	t.Helper()
	v, err := w.(value.Trackable).Get(value.String(key))
	require.NoError(t, err)
	return v
}
