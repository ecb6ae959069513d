package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

func coverWithMetrics(t *testing.T, root value.Value) (value.Trackable, *Recorder) {
	t.Helper()
	w, err := track.Cover(root)
	require.NoError(t, err)
	r := NewRecorder()
	_, err = track.Observe(w, r.Observer())
	require.NoError(t, err)
	return w.(value.Trackable), r
}

func TestRecorder_CountsByOpAndKind(t *testing.T) {
	w, r := coverWithMetrics(t, value.ObjectOf(
		value.P("n", value.Int(1)),
		value.P("tags", value.NewSet()),
		value.P("index", value.NewMap()),
	))

	require.NoError(t, w.Set(value.String("n"), value.Int(2)))
	require.NoError(t, w.Set(value.String("m"), value.Int(3)))
	_, err := w.Delete(value.String("m"))
	require.NoError(t, err)

	tags, err := w.Get(value.String("tags"))
	require.NoError(t, err)
	_, err = tags.(value.Trackable).Call("add", value.String("a"))
	require.NoError(t, err)

	index, err := w.Get(value.String("index"))
	require.NoError(t, err)
	_, err = index.(value.Trackable).Call("set", value.String("k"), value.Int(1))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.changes.WithLabelValues("set", "object")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("delete", "object")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("add", "set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("set", "map")))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.methods.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.methods.WithLabelValues("set")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.lastSeq))
}

func TestRecorder_DateCalls(t *testing.T) {
	w, r := coverWithMetrics(t, value.ObjectOf(value.P("due", value.DateFromMillis(0))))

	due, err := w.Get(value.String("due"))
	require.NoError(t, err)
	_, err = due.(value.Trackable).Call("setTime", value.Int(1000))
	require.NoError(t, err)
	// Reads are silent.
	_, err = due.(value.Trackable).Call("getTime")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("call", "date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.methods.WithLabelValues("setTime")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.methods))
}

func TestRecorder_WriteText(t *testing.T) {
	w, r := coverWithMetrics(t, value.ObjectOf(value.P("a", value.ObjectOf(value.P("b", value.Int(1))))))

	a, err := w.Get(value.String("a"))
	require.NoError(t, err)
	require.NoError(t, a.(value.Trackable).Set(value.String("b"), value.Int(2)))

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "# TYPE covert_changes_total counter")
	assert.Contains(t, out, `covert_changes_total{kind="object",op="set"} 1`)
	assert.Contains(t, out, "covert_change_path_depth_count 1")
	assert.Contains(t, out, `covert_change_path_depth_bucket{le="2"} 1`)
	assert.Contains(t, out, "covert_last_seq 1")
}

func TestRecorder_Isolated(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()

	require.NoError(t, a.Observe(track.Event{Seq: 1, Path: "x", Op: track.OpSet, Target: value.NewObject()}))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.changes.WithLabelValues("set", "object")))
	assert.Equal(t, 0, testutil.CollectAndCount(b.changes))
}
