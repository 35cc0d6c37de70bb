package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	captureStatsLogInterval = 5 * time.Second
	readErrorBackoff        = 10 * time.Millisecond
)

// Session is the live binding to the camera for one scanning attempt. A
// background pump keeps the newest frame available; consumers never block on
// the device.
type Session struct {
	stream Stream
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	running   atomic.Bool
	latest    atomic.Pointer[Frame]
	width     atomic.Int64
	height    atomic.Int64
	captures  atomic.Uint64
	skipped   atomic.Uint64
	readNanos atomic.Uint64
	sequence  atomic.Uint64

	stopOnce sync.Once
	done     chan struct{}
}

func newSession(stream Stream, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{stream: stream, logger: logger, ctx: ctx, cancel: cancel, done: make(chan struct{})}
	s.running.Store(true)
	return s
}

// Running reports whether the session still owns the device.
func (s *Session) Running() bool { return s != nil && s.running.Load() }

// Width is zero until the first usable frame arrives.
func (s *Session) Width() int { return int(s.width.Load()) }

// Height is zero until the first usable frame arrives.
func (s *Session) Height() int { return int(s.height.Load()) }

// ActiveTracks reports the open device tracks of the underlying stream.
func (s *Session) ActiveTracks() int {
	if s == nil || s.stream == nil {
		return 0
	}
	return s.stream.ActiveTracks()
}

// Done is closed once the frame pump has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Stats returns pump counters.
func (s *Session) Stats() Stats {
	captures := s.captures.Load()
	total := s.readNanos.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(total / captures)
	}
	st := Stats{
		Captures: captures,
		Skipped:  s.skipped.Load(),
		AvgRead:  avg,
	}
	if f := s.latest.Load(); f != nil {
		st.LastCapture = f.CapturedAt
		st.LatestFrameAge = time.Since(f.CapturedAt)
		st.Sequence = f.Sequence
	}
	return st
}

func (s *Session) latestFrame() (Frame, bool) {
	f := s.latest.Load()
	if f == nil || f.Empty() {
		return Frame{}, false
	}
	return *f, true
}

func (s *Session) stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		s.cancel()
		if err := s.stream.Close(); err != nil && s.logger != nil {
			s.logger.Warn("capture stream close", "error", err)
		}
		if s.logger != nil {
			s.logger.Info("capture session stopped", "captures", s.captures.Load(), "skipped", s.skipped.Load())
		}
	})
}

func (s *Session) pump() {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("capture pump panic", "error", r)
		}
	}()
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	for s.running.Load() {
		start := time.Now()
		img, err := s.stream.ReadFrame(s.ctx)
		if err != nil {
			if !s.running.Load() || errors.Is(err, ErrSessionStopped) || errors.Is(err, io.EOF) {
				return
			}
			s.skipped.Add(1)
			if s.logger != nil {
				s.logger.Debug("capture read", "error", err)
			}
			time.Sleep(readErrorBackoff)
			continue
		}
		seq := s.sequence.Add(1)
		frame := FrameFromImage(img, seq, time.Now())
		if frame.Empty() {
			s.skipped.Add(1)
			continue
		}
		s.readNanos.Add(uint64(time.Since(start).Nanoseconds()))
		s.captures.Add(1)
		if s.width.Load() == 0 {
			s.width.Store(int64(frame.Width))
			s.height.Store(int64(frame.Height))
		}
		s.latest.Store(&frame)

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}
	}
}

func (s *Session) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"avg_read", stats.AvgRead,
		"age", stats.LatestFrameAge,
	)
}
