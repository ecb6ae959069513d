package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covert/internal/value"
)

func coverDate(t *testing.T, ms int64) (*DateProxy, *recorder) {
	t.Helper()
	w, rec := coverWithRecorder(t, value.ObjectOf(value.P("due", value.DateFromMillis(ms))))
	return get(t, w, "due").(*DateProxy), rec
}

func TestDateSetterEmitsAtOwnPath(t *testing.T) {
	d, rec := coverDate(t, 1000)

	_, err := d.Call("setTime", value.Int(5000))
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, "due", ev.Path)
	assert.Equal(t, OpCall, ev.Op)
	assert.Equal(t, "setTime", ev.Method)
	assert.Equal(t, value.Int(1000), ev.Old)
	assert.Equal(t, value.Int(5000), ev.New)
}

func TestDateGetterIsSilent(t *testing.T) {
	d, rec := coverDate(t, 1614816000000)

	year, err := d.Call("getFullYear")
	require.NoError(t, err)
	assert.Equal(t, value.Int(2021), year)

	// Setting the same time value changes nothing.
	_, err = d.Call("setTime", value.Int(1614816000000))
	require.NoError(t, err)
	assert.Empty(t, rec.events)
}

func TestDateBoundMethodReports(t *testing.T) {
	d, rec := coverDate(t, 0)

	m, err := d.Get(value.String("setFullYear"))
	require.NoError(t, err)
	fn, ok := m.(*value.Function)
	require.True(t, ok)

	_, err = fn.Invoke(nil, value.Int(1971))
	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	assert.Equal(t, "setFullYear", rec.events[0].Method)

	got, ok := d.Time()
	require.True(t, ok)
	assert.Equal(t, 1971, got.Year())
}

func TestDateSetTime(t *testing.T) {
	d, rec := coverDate(t, 0)

	at := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	require.NoError(t, d.SetTime(at))

	got, ok := d.Time()
	require.True(t, ok)
	assert.True(t, at.Equal(got))
	assert.Equal(t, value.Int(at.UnixMilli()), rec.events[0].New)
}

func TestDateRejectsProperties(t *testing.T) {
	d, rec := coverDate(t, 0)

	err := d.Set(value.String("label"), value.String("x"))
	assert.ErrorIs(t, err, value.ErrUnsupported)

	_, err = d.Call("noSuchMethod")
	assert.ErrorIs(t, err, value.ErrUnknownMethod)
	assert.Empty(t, rec.events)
}
