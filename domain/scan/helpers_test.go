package scan

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soocke/serialscan/domain/capture"
	"github.com/soocke/serialscan/domain/decode"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// fakeDecoder answers through fn and records the sequence of every frame it
// saw.
type fakeDecoder struct {
	name string
	fn   func(f capture.Frame) (decode.Result, error)

	mu      sync.Mutex
	seqs    []uint64
	active  atomic.Int32
	overlap atomic.Bool
}

func (d *fakeDecoder) Name() string { return d.name }

func (d *fakeDecoder) Decode(_ context.Context, f capture.Frame) (decode.Result, error) {
	if d.active.Add(1) > 1 {
		d.overlap.Store(true)
	}
	defer d.active.Add(-1)
	d.mu.Lock()
	d.seqs = append(d.seqs, f.Sequence)
	d.mu.Unlock()
	if d.fn == nil {
		return decode.NotFound(), nil
	}
	return d.fn(f)
}

func (d *fakeDecoder) calls() []uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint64(nil), d.seqs...)
}

type fakeOCR struct {
	fakeDecoder
	ready atomic.Bool
}

func (o *fakeOCR) Ready() bool { return o.ready.Load() }

func newOCR(ready bool, fn func(f capture.Frame) (decode.Result, error)) *fakeOCR {
	o := &fakeOCR{fakeDecoder: fakeDecoder{name: decode.TierOCR, fn: fn}}
	o.ready.Store(ready)
	return o
}

func never(capture.Frame) (decode.Result, error) { return decode.NotFound(), nil }

func foundAt(seq uint64, serial, source string) func(capture.Frame) (decode.Result, error) {
	return func(f capture.Frame) (decode.Result, error) {
		if f.Sequence == seq {
			return decode.Found(serial, source), nil
		}
		return decode.NotFound(), nil
	}
}

func frame(seq uint64) capture.Frame {
	return capture.FrameFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)), seq, time.Now())
}

// manualClock hands ticks to the loop one at a time. Tick blocks until the
// loop has finished the previous step and accepted the new tick.
type manualClock struct{ c chan time.Time }

func newManualClock() *manualClock { return &manualClock{c: make(chan time.Time)} }

func (m *manualClock) Frames() <-chan time.Time { return m.c }

// Tick delivers one tick, or returns false if the loop stopped listening.
func (m *manualClock) Tick(done <-chan struct{}) bool {
	select {
	case m.c <- time.Now():
		return true
	case <-done:
		return false
	case <-time.After(2 * time.Second):
		return false
	}
}

// frameFeed numbers frames 1, 2, 3... so decoders can key on the frame
// count. The first `empty` calls report no frame.
type frameFeed struct {
	empty int
	n     atomic.Uint64
	calls atomic.Int64
}

func (f *frameFeed) next() (capture.Frame, bool) {
	if f.calls.Add(1) <= int64(f.empty) {
		return capture.Frame{}, false
	}
	return frame(f.n.Add(1)), true
}

func waitClosed(t *testing.T, c <-chan struct{}) {
	t.Helper()
	select {
	case <-c:
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed within deadline")
	}
}

func waitForState(t *testing.T, s *Scheduler, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state=%s want %s", s.State(), want)
}
