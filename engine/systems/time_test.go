package systems

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives a TimeSystem through injected instants.
type fakeClock struct {
	current time.Time
}

func (fc *fakeClock) advance(d time.Duration) { fc.current = fc.current.Add(d) }

func newFakeTimeSystem(t *testing.T) (*TimeSystem, *fakeClock) {
	t.Helper()
	fc := &fakeClock{current: time.Unix(1000, 0)}
	ts := NewTimeSystem()
	ts.now = func() time.Time { return fc.current }
	require.NoError(t, ts.Initialize())
	return ts, fc
}

func TestTimeSystemTick(t *testing.T) {
	ts, fc := newFakeTimeSystem(t)

	fc.advance(16 * time.Millisecond)
	delta := ts.Tick()

	assert.InDelta(t, 0.016, delta, 1e-9)
	assert.InDelta(t, 0.016, ts.Delta(), 1e-9)
	assert.InDelta(t, 0.016, ts.UnscaledDelta(), 1e-9)
	assert.Equal(t, uint64(1), ts.FrameCount())

	fc.advance(16 * time.Millisecond)
	ts.Tick()
	assert.InDelta(t, 0.032, ts.Total(), 1e-9)
	assert.Equal(t, uint64(2), ts.FrameCount())
}

func TestTimeSystemFirstTickIsZero(t *testing.T) {
	ts, _ := newFakeTimeSystem(t)
	assert.Equal(t, 0.0, ts.Tick())
}

func TestTimeSystemClampsLongFrames(t *testing.T) {
	ts, fc := newFakeTimeSystem(t)

	// A five second stall, e.g. sitting in a breakpoint.
	fc.advance(5 * time.Second)
	delta := ts.Tick()

	assert.InDelta(t, DEFAULT_MAX_DELTA, delta, 1e-9)
	assert.InDelta(t, DEFAULT_MAX_DELTA, ts.UnscaledDelta(), 1e-9)
}

func TestTimeSystemTimeScale(t *testing.T) {
	ts, fc := newFakeTimeSystem(t)

	ts.SetTimeScale(0.5)
	fc.advance(16 * time.Millisecond)
	ts.Tick()
	assert.InDelta(t, 0.008, ts.Delta(), 1e-9)
	assert.InDelta(t, 0.016, ts.UnscaledDelta(), 1e-9)

	// Frozen scaled time, unscaled keeps flowing.
	ts.SetTimeScale(0)
	fc.advance(16 * time.Millisecond)
	ts.Tick()
	assert.Equal(t, 0.0, ts.Delta())
	assert.InDelta(t, 0.008, ts.Total(), 1e-9)
	assert.InDelta(t, 0.032, ts.UnscaledTotal(), 1e-9)

	ts.SetTimeScale(-3)
	assert.Equal(t, 0.0, ts.TimeScale())
}

func TestTimeSystemSetterClamps(t *testing.T) {
	ts := NewTimeSystem()

	ts.SetMaxDelta(-1)
	assert.Equal(t, 0.0, ts.MaxDelta())

	ts.SetFixedDelta(0)
	assert.Equal(t, MIN_FIXED_DELTA, ts.FixedDelta())

	ts.SetFixedDelta(1.0 / 30.0)
	assert.InDelta(t, 1.0/30.0, ts.FixedDelta(), 1e-9)
}

func TestTimeSystemMetrics(t *testing.T) {
	ts, fc := newFakeTimeSystem(t)

	// 63 frames of 16ms crosses the one second FPS bucket.
	for i := 0; i < 63; i++ {
		fc.advance(16 * time.Millisecond)
		ts.Tick()
		require.NoError(t, ts.Update(ts.Delta()))
	}

	assert.InDelta(t, 16.0, ts.FrameTimeMS(), 0.01)
	assert.Equal(t, 62.0, ts.FPS())
}

func TestTimeSystemSinceStart(t *testing.T) {
	ts, fc := newFakeTimeSystem(t)
	fc.advance(2500 * time.Millisecond)
	assert.InDelta(t, 2.5, ts.SinceStart(), 1e-9)
}
