package scan

import "sync/atomic"

// Metrics is the per-session record threaded through the scheduler loop.
// Only the loop goroutine writes; readers may snapshot at any time.
type Metrics struct {
	frames atomic.Uint64
	ocr    atomic.Uint64
}

// FrameCount is the number of frames handed to the pipeline this session.
func (m *Metrics) FrameCount() uint64 { return m.frames.Load() }

// OCRAttempts is the number of times tier 3 was invoked this session.
func (m *Metrics) OCRAttempts() uint64 { return m.ocr.Load() }

func (m *Metrics) nextFrame() uint64 { return m.frames.Add(1) }
func (m *Metrics) addOCR()           { m.ocr.Add(1) }

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	FrameCount  uint64
	OCRAttempts uint64
}

// Snapshot copies the counters. A nil receiver yields zeros.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{FrameCount: m.FrameCount(), OCRAttempts: m.OCRAttempts()}
}

// Throttle gates the OCR tier on the session frame count: OCR may run on
// frame n only when n > Warmup and n is a multiple of Interval.
type Throttle struct {
	Warmup   uint64
	Interval uint64
}

// DefaultThrottle is roughly once per second after two seconds at 30fps.
func DefaultThrottle() Throttle { return Throttle{Warmup: 60, Interval: 30} }

// Allow reports whether frame n may use OCR.
func (t Throttle) Allow(n uint64) bool {
	interval := t.Interval
	if interval == 0 {
		interval = 1
	}
	return n > t.Warmup && n%interval == 0
}
