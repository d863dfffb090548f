package core

// Frame metrics: a rolling frame-time average plus a once-per-second FPS
// sample. Mutated only by the owning system on the main thread.

const frameAvgCount = 30

type FrameMetrics struct {
	avgCounter         int
	msTimes            [frameAvgCount]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

// Update records one frame's elapsed time, in seconds.
func (m *FrameMetrics) Update(frameElapsed float64) {
	frameMS := frameElapsed * 1000.0
	m.msTimes[m.avgCounter] = frameMS
	if m.avgCounter == frameAvgCount-1 {
		sum := 0.0
		for i := 0; i < frameAvgCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / float64(frameAvgCount)
	}
	m.avgCounter = (m.avgCounter + 1) % frameAvgCount

	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
	m.frames++
}

// FPS returns the frame count of the most recent full second.
func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// FrameTimeMS returns the rolling average frame time in milliseconds.
func (m *FrameMetrics) FrameTimeMS() float64 {
	return m.msAvg
}
