package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
)

var (
	// ErrCameraUnavailable is matched by every camera acquisition failure,
	// including a permission denial by the host.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrSessionActive is returned when a second session is requested while
	// one is still running.
	ErrSessionActive = errors.New("capture session already active")
	// ErrSessionStopped is returned by streams read after Close.
	ErrSessionStopped = errors.New("capture session stopped")
)

// UnavailableError carries the host's reason for refusing the camera.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return "camera access failed"
	}
	return fmt.Sprintf("camera access failed: %v", e.Cause)
}

// Unwrap lets errors.Is match both ErrCameraUnavailable and the cause.
func (e *UnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCameraUnavailable}
	}
	return []error{ErrCameraUnavailable, e.Cause}
}

// Camera is the host capability that grants access to a video stream.
type Camera interface {
	Request(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live video stream owned by exactly one Session.
type Stream interface {
	// ReadFrame blocks until the next frame is available. It returns an error
	// wrapping ErrSessionStopped once the stream has been closed.
	ReadFrame(ctx context.Context) (image.Image, error)
	// ActiveTracks reports how many underlying device tracks are still open.
	ActiveTracks() int
	Close() error
}

// Source owns the camera capability and hands out capture sessions. At most
// one session is active at a time.
type Source struct {
	camera      Camera
	constraints Constraints
	logger      *slog.Logger

	mu     sync.Mutex
	active *Session
}

// NewSource constructs a frame source over camera.
func NewSource(camera Camera, constraints Constraints, logger *slog.Logger) *Source {
	return &Source{camera: camera, constraints: constraints, logger: logger}
}

// Start acquires the camera and begins pumping frames. Acquisition failures
// are wrapped in *UnavailableError and never retried.
func (s *Source) Start(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.Running() {
		return nil, ErrSessionActive
	}
	if s.camera == nil {
		return nil, &UnavailableError{Cause: errors.New("no camera capability")}
	}
	stream, err := s.camera.Request(ctx, s.constraints)
	if err != nil {
		return nil, &UnavailableError{Cause: err}
	}
	if stream == nil {
		return nil, &UnavailableError{Cause: errors.New("camera returned no stream")}
	}
	sess := newSession(stream, s.logger)
	s.active = sess
	go sess.pump()
	if s.logger != nil {
		s.logger.Info("capture session started", "width", s.constraints.Width, "height", s.constraints.Height)
	}
	return sess, nil
}

// CaptureFrame returns the newest frame of sess. It reports false when the
// session is stopped or has not yet delivered a frame with non-zero size.
func (s *Source) CaptureFrame(sess *Session) (Frame, bool) {
	if sess == nil || !sess.Running() {
		return Frame{}, false
	}
	return sess.latestFrame()
}

// Stop releases the session's device tracks. Safe to call repeatedly and on
// sessions that already ended.
func (s *Source) Stop(sess *Session) {
	if sess == nil {
		return
	}
	sess.stop()
	s.mu.Lock()
	if s.active == sess {
		s.active = nil
	}
	s.mu.Unlock()
}

// Active returns the running session, if any.
func (s *Source) Active() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.Running() {
		return s.active
	}
	return nil
}
