package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/vova616/screenshot"
)

// ScreenCamera treats the desktop (or a selection of it) as a camera. Useful
// when a serial is displayed on screen or no webcam is attached.
type ScreenCamera struct{}

// NewScreenCamera returns the screen capture capability.
func NewScreenCamera() *ScreenCamera { return &ScreenCamera{} }

// Request validates the selection against the screen bounds and returns a
// stream paced at c.FrameRate.
func (ScreenCamera) Request(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	screen, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("screen capture: %w", err)
	}
	sel := c.Selection
	if !sel.Empty() {
		sel = sel.Intersect(screen)
		if sel.Empty() {
			return nil, fmt.Errorf("screen capture: selection out of bounds sel=%v screen=%v", c.Selection, screen)
		}
	}
	interval := time.Second / 30
	if c.FrameRate > 0 {
		interval = time.Duration(float64(time.Second) / c.FrameRate)
	}
	s := &screenStream{selection: sel, interval: interval}
	s.open.Store(1)
	return s, nil
}

type screenStream struct {
	selection image.Rectangle
	interval  time.Duration
	next      time.Time
	open      atomic.Int32
}

func (s *screenStream) ReadFrame(ctx context.Context) (image.Image, error) {
	if s.open.Load() == 0 {
		return nil, ErrSessionStopped
	}
	if wait := time.Until(s.next); wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %v", ErrSessionStopped, ctx.Err())
		case <-t.C:
		}
	}
	s.next = time.Now().Add(s.interval)
	var (
		img *image.RGBA
		err error
	)
	if s.selection.Empty() {
		img, err = screenshot.CaptureScreen()
	} else {
		img, err = screenshot.CaptureRect(s.selection)
	}
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("screen capture returned no image")
	}
	return img, nil
}

func (s *screenStream) ActiveTracks() int { return int(s.open.Load()) }

func (s *screenStream) Close() error {
	s.open.Store(0)
	return nil
}
