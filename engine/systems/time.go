package systems

import (
	"time"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

const (
	// DEFAULT_MAX_DELTA caps a single frame delta so a debugger pause or
	// a long stall does not step the simulation by seconds.
	DEFAULT_MAX_DELTA = 0.1
	// MIN_FIXED_DELTA is the smallest accepted fixed timestep.
	MIN_FIXED_DELTA = 0.001

	DEFAULT_FIXED_DELTA = 1.0 / 60.0
)

// TimeSystem owns frame timing: scaled and unscaled deltas, totals, the
// frame counter and the frame metrics. Tick advances the clock once per
// frame; every query afterwards is consistent for that frame. All
// mutation happens on the main goroutine, queries are plain reads.
type TimeSystem struct {
	BaseSystem

	startTime time.Time
	lastFrame time.Time

	delta         float64
	unscaledDelta float64
	rawDelta      float64
	total         float64
	unscaledTotal float64
	timeScale     float64
	maxDelta      float64
	fixedDelta    float64
	frameCount    uint64

	metrics *core.FrameMetrics
	now     func() time.Time
}

func NewTimeSystem() *TimeSystem {
	return &TimeSystem{
		timeScale:  1.0,
		maxDelta:   DEFAULT_MAX_DELTA,
		fixedDelta: DEFAULT_FIXED_DELTA,
		metrics:    core.NewFrameMetrics(),
		now:        time.Now,
	}
}

func (ts *TimeSystem) Name() string             { return "Time" }
func (ts *TimeSystem) Priority() SystemPriority { return PriorityCritical }

func (ts *TimeSystem) Initialize() error {
	ts.startTime = ts.now()
	ts.lastFrame = ts.startTime
	ts.frameCount = 0
	ts.total = 0
	ts.unscaledTotal = 0
	ts.MarkInitialized()
	return nil
}

// Tick advances last to current and recomputes the deltas. The engine
// calls it exactly once per frame, before the system update traversal,
// so the delta those updates receive belongs to this frame.
func (ts *TimeSystem) Tick() float64 {
	current := ts.now()
	ts.rawDelta = current.Sub(ts.lastFrame).Seconds()
	ts.lastFrame = current

	ts.unscaledDelta = ts.rawDelta
	if ts.unscaledDelta > ts.maxDelta {
		ts.unscaledDelta = ts.maxDelta
	}
	ts.delta = ts.unscaledDelta * ts.timeScale

	ts.total += ts.delta
	ts.unscaledTotal += ts.unscaledDelta
	ts.frameCount++
	return ts.delta
}

// Update feeds the frame metrics with the raw frame time, uncapped so
// the FPS counter reflects reality even through stalls.
func (ts *TimeSystem) Update(deltaTime float64) error {
	ts.metrics.Update(ts.rawDelta)
	return nil
}

func (ts *TimeSystem) Render(deltaTime float64) error { return nil }

func (ts *TimeSystem) Shutdown() error {
	ts.MarkShutdown()
	return nil
}

func (ts *TimeSystem) Delta() float64         { return ts.delta }
func (ts *TimeSystem) UnscaledDelta() float64 { return ts.unscaledDelta }
func (ts *TimeSystem) Total() float64         { return ts.total }
func (ts *TimeSystem) UnscaledTotal() float64 { return ts.unscaledTotal }
func (ts *TimeSystem) FrameCount() uint64     { return ts.frameCount }
func (ts *TimeSystem) TimeScale() float64     { return ts.timeScale }
func (ts *TimeSystem) MaxDelta() float64      { return ts.maxDelta }
func (ts *TimeSystem) FixedDelta() float64    { return ts.fixedDelta }
func (ts *TimeSystem) FPS() float64           { return ts.metrics.FPS() }
func (ts *TimeSystem) FrameTimeMS() float64   { return ts.metrics.FrameTimeMS() }

// SinceStart returns wall seconds since Initialize, independent of the
// frame loop.
func (ts *TimeSystem) SinceStart() float64 {
	if ts.startTime.IsZero() {
		return 0
	}
	return ts.now().Sub(ts.startTime).Seconds()
}

// SetTimeScale clamps negative scales to zero. Zero freezes scaled time
// while unscaled time keeps flowing.
func (ts *TimeSystem) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	ts.timeScale = scale
}

func (ts *TimeSystem) SetMaxDelta(maxDelta float64) {
	if maxDelta < 0 {
		maxDelta = 0
	}
	ts.maxDelta = maxDelta
}

// SetFixedDelta refuses steps under a millisecond.
func (ts *TimeSystem) SetFixedDelta(fixedDelta float64) {
	if fixedDelta < MIN_FIXED_DELTA {
		fixedDelta = MIN_FIXED_DELTA
	}
	ts.fixedDelta = fixedDelta
}
