package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
}

func TestDeterministicClock_NextIncrementsMonotonically(t *testing.T) {
	clock := NewDeterministicClock()

	// First call returns 1
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(1), clock.Current())

	// Subsequent calls increment
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(3), clock.Next())
	assert.Equal(t, int64(4), clock.Next())
	assert.Equal(t, int64(4), clock.Current())
}

func TestDeterministicClock_StartAt(t *testing.T) {
	clock := NewDeterministicClockAt(41)
	assert.Equal(t, int64(41), clock.Current())
	assert.Equal(t, int64(42), clock.Next())
}

func TestDeterministicClock_StampsEvents(t *testing.T) {
	clock := NewDeterministicClock()
	rec := &Recorder{}

	for run := 0; run < 2; run++ {
		clock.Reset()
		rec.Reset()

		w, err := track.Cover(value.ObjectOf(value.P("n", value.Int(0))), track.WithClock(clock))
		require.NoError(t, err)
		_, err = track.Observe(w, rec.Observe)
		require.NoError(t, err)

		root := w.(value.Trackable)
		require.NoError(t, root.Set(value.String("n"), value.Int(1)))
		require.NoError(t, root.Set(value.String("n"), value.Int(2)))

		events := rec.Events()
		require.Len(t, events, 2, "run %d", run)
		assert.Equal(t, int64(1), events[0].Seq, "run %d", run)
		assert.Equal(t, int64(2), events[1].Seq, "run %d", run)
	}
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()

	// Advance clock
	clock.Next()
	clock.Next()
	clock.Next()
	assert.Equal(t, int64(3), clock.Current())

	// Reset
	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())

	// First call after reset returns 1
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ConcurrentNextIsUnique(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 16, 200

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seq := clock.Next()
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), clock.Current())
}
