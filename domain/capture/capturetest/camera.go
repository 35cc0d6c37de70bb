// Package capturetest provides an in-memory camera for tests.
package capturetest

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/serialscan/domain/capture"
)

// Camera hands out Streams that replay Frames. Setting Err makes every
// Request fail with it, mimicking a denied permission.
type Camera struct {
	Err        error
	Frames     []image.Image
	FrameDelay time.Duration

	mu       sync.Mutex
	requests int
	streams  []*Stream
}

// Request implements capture.Camera.
func (c *Camera) Request(ctx context.Context, _ capture.Constraints) (capture.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	if c.Err != nil {
		return nil, c.Err
	}
	delay := c.FrameDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	s := &Stream{frames: c.Frames, delay: delay, closed: make(chan struct{})}
	s.open.Store(1)
	c.streams = append(c.streams, s)
	return s, nil
}

// Requests counts calls to Request, granted or not.
func (c *Camera) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// OpenTracks sums the open tracks across every stream ever granted.
func (c *Camera) OpenTracks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.streams {
		n += s.ActiveTracks()
	}
	return n
}

// Stream replays its frames in order and then repeats the last one.
type Stream struct {
	frames []image.Image
	delay  time.Duration
	idx    int

	open      atomic.Int32
	closeOnce sync.Once
	closed    chan struct{}
}

func (s *Stream) ReadFrame(ctx context.Context) (image.Image, error) {
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-s.closed:
		return nil, capture.ErrSessionStopped
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", capture.ErrSessionStopped, ctx.Err())
	case <-t.C:
	}
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("no frames")
	}
	img := s.frames[s.idx]
	if s.idx < len(s.frames)-1 {
		s.idx++
	}
	return img, nil
}

func (s *Stream) ActiveTracks() int { return int(s.open.Load()) }

func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.open.Store(0)
		close(s.closed)
	})
	return nil
}

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
