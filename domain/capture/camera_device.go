package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"

	// Registers the platform camera driver (v4l2 on linux).
	_ "github.com/pion/mediadevices/pkg/driver/camera"
)

// DeviceCamera grants access to a physical camera through the
// getUserMedia-style API of pion/mediadevices.
type DeviceCamera struct {
	logger *slog.Logger
}

// NewDeviceCamera returns the default hardware camera capability.
func NewDeviceCamera(logger *slog.Logger) *DeviceCamera {
	return &DeviceCamera{logger: logger}
}

// Request opens the camera matching c. A denial by the host (busy device,
// missing permission, no device) is returned as-is; Source wraps it.
func (d *DeviceCamera) Request(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(m *mediadevices.MediaTrackConstraints) {
			if c.DeviceID != "" {
				m.DeviceID = prop.String(c.DeviceID)
			}
			if c.Width > 0 {
				m.Width = prop.Int(c.Width)
			}
			if c.Height > 0 {
				m.Height = prop.Int(c.Height)
			}
			if c.FrameRate > 0 {
				m.FrameRate = prop.Float(c.FrameRate)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	tracks := ms.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, errors.New("no video track available")
	}
	vt, ok := tracks[0].(*mediadevices.VideoTrack)
	if !ok {
		for _, t := range tracks {
			_ = t.Close()
		}
		return nil, fmt.Errorf("unexpected track type %T", tracks[0])
	}
	s := &deviceStream{tracks: tracks, reader: vt.NewReader(true), logger: d.logger}
	s.open.Store(int32(len(tracks)))
	if d.logger != nil {
		d.logger.Debug("camera granted", "tracks", len(tracks), "device", c.DeviceID)
	}
	return s, nil
}

type deviceStream struct {
	tracks []mediadevices.Track
	reader video.Reader
	logger *slog.Logger

	open      atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
}

func (s *deviceStream) ReadFrame(ctx context.Context) (image.Image, error) {
	if s.closed.Load() {
		return nil, ErrSessionStopped
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStopped, err)
	}
	img, release, err := s.reader.Read()
	if release != nil {
		defer release()
	}
	if err != nil {
		if s.closed.Load() {
			return nil, ErrSessionStopped
		}
		return nil, err
	}
	return img, nil
}

func (s *deviceStream) ActiveTracks() int { return int(s.open.Load()) }

// Close stops every track of the stream. The first error is returned but all
// tracks are attempted.
func (s *deviceStream) Close() error {
	var first error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		for _, t := range s.tracks {
			if err := t.Close(); err != nil && first == nil {
				first = err
			}
			s.open.Add(-1)
		}
	})
	return first
}
