package capture

import (
	"image"
	"image/draw"
)

// toRGBA returns a freshly allocated, zero-origin RGBA copy of img.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src, ok := img.(*image.RGBA); ok && src.Stride == w*4 {
		off := src.PixOffset(b.Min.X, b.Min.Y)
		copy(dst.Pix, src.Pix[off:off+w*h*4])
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// CenterCrop returns the centred sub-frame covering fraction of each
// dimension, clamped to at least 1x1. A fraction outside (0,1) returns f.
func CenterCrop(f Frame, fraction float64) Frame {
	if f.Empty() || fraction <= 0 || fraction >= 1 {
		return f
	}
	w := int(float64(f.Width) * fraction)
	h := int(float64(f.Height) * fraction)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x0 := (f.Width - w) / 2
	y0 := (f.Height - h) / 2
	out := make([]byte, w*h*4)
	stride := f.Width * 4
	for y := 0; y < h; y++ {
		src := (y0+y)*stride + x0*4
		copy(out[y*w*4:(y+1)*w*4], f.Pix[src:src+w*4])
	}
	return Frame{Width: w, Height: h, Pix: out, CapturedAt: f.CapturedAt, Sequence: f.Sequence}
}
