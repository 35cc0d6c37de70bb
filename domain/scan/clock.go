package scan

import "time"

// FrameClock paces the scheduler: one loop step per received tick.
type FrameClock interface {
	Frames() <-chan time.Time
}

// Pulse is a FrameClock driven by an external presentation signal, such as
// the UI redraw tick. Signals arriving while a step is still pending are
// dropped so the loop never queues work.
type Pulse struct {
	c chan time.Time
}

func NewPulse() *Pulse { return &Pulse{c: make(chan time.Time, 1)} }

// Signal offers one tick; it never blocks.
func (p *Pulse) Signal(now time.Time) {
	select {
	case p.c <- now:
	default:
	}
}

func (p *Pulse) Frames() <-chan time.Time { return p.c }

// TickerClock ticks at a fixed frame rate. Used when no display drives the
// loop.
type TickerClock struct {
	t *time.Ticker
}

// NewTickerClock ticks fps times per second; non-positive fps means 30.
func NewTickerClock(fps float64) *TickerClock {
	if fps <= 0 {
		fps = 30
	}
	return &TickerClock{t: time.NewTicker(time.Duration(float64(time.Second) / fps))}
}

func (c *TickerClock) Frames() <-chan time.Time { return c.t.C }

func (c *TickerClock) Stop() { c.t.Stop() }
