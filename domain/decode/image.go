package decode

import (
	"context"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/soocke/serialscan/domain/capture"
)

// ZXingDecoder is the pure-Go QR decoder. It is safe for concurrent use; each
// call builds its own reader.
type ZXingDecoder struct {
	TryHarder bool
}

// DecodePixels implements PixelDecoder.
func (z ZXingDecoder) DecodePixels(pix []byte, width, height int) (string, bool) {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return "", false
	}
	img := &image.RGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	var hints map[gozxing.DecodeHintType]interface{}
	if z.TryHarder {
		hints = map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil || res == nil {
		return "", false
	}
	return res.GetText(), true
}

// ImageDecoder is tier 2: a pixel-level QR decode of the full frame.
type ImageDecoder struct {
	pixels PixelDecoder
}

// NewImageDecoder wraps p; a nil p uses ZXingDecoder with try-harder.
func NewImageDecoder(p PixelDecoder) *ImageDecoder {
	if p == nil {
		p = ZXingDecoder{TryHarder: true}
	}
	return &ImageDecoder{pixels: p}
}

func (d *ImageDecoder) Name() string { return TierImage }

func (d *ImageDecoder) Decode(ctx context.Context, f capture.Frame) (Result, error) {
	if f.Empty() {
		return NotFound(), nil
	}
	if err := ctx.Err(); err != nil {
		return NotFound(), err
	}
	text, ok := d.pixels.DecodePixels(f.Pix, f.Width, f.Height)
	if !ok {
		return NotFound(), nil
	}
	return Found(text, TierImage), nil
}
