package capture

import (
	"image"
	"time"
)

// Frame is an immutable RGBA snapshot taken from a stream at one instant.
// Pix is laid out row-major with a stride of Width*4 and must not be mutated.
type Frame struct {
	Width      int
	Height     int
	Pix        []byte
	CapturedAt time.Time
	Sequence   uint64
}

// Empty reports whether the frame carries no usable pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*4
}

// Image exposes the frame as an *image.RGBA sharing the pixel buffer.
func (f Frame) Image() *image.RGBA {
	if f.Empty() {
		return nil
	}
	return &image.RGBA{Pix: f.Pix, Stride: f.Width * 4, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

// FrameFromImage converts img into a Frame, copying pixels so the result owns
// its buffer regardless of what the producer does with img afterwards.
func FrameFromImage(img image.Image, seq uint64, at time.Time) Frame {
	if img == nil {
		return Frame{}
	}
	rgba := toRGBA(img)
	if rgba == nil {
		return Frame{}
	}
	return Frame{
		Width:      rgba.Rect.Dx(),
		Height:     rgba.Rect.Dy(),
		Pix:        rgba.Pix,
		CapturedAt: at,
		Sequence:   seq,
	}
}

// Constraints mirror the media constraints a camera request may carry.
type Constraints struct {
	DeviceID  string
	Width     int
	Height    int
	FrameRate float64
	// Selection limits screen capture to a rectangle; empty means full screen.
	Selection image.Rectangle
}

// Stats summarises stream pump behaviour for instrumentation.
type Stats struct {
	Captures       uint64
	Skipped        uint64
	AvgRead        time.Duration
	LastCapture    time.Time
	LatestFrameAge time.Duration
	Sequence       uint64
}
