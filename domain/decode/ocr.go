package decode

import (
	"context"
	"image"

	"github.com/soocke/serialscan/domain/capture"
)

// TextRecognizer is the subset of the OCR engine tier 3 depends on.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Ready() bool
}

// OCRDecoder is tier 3: printed-text recognition over the central region of
// the frame.
type OCRDecoder struct {
	engine      TextRecognizer
	roiFraction float64
}

// NewOCRDecoder crops frames to roiFraction of each dimension before
// recognition; 1 or 0 uses the full frame.
func NewOCRDecoder(engine TextRecognizer, roiFraction float64) *OCRDecoder {
	return &OCRDecoder{engine: engine, roiFraction: roiFraction}
}

func (d *OCRDecoder) Name() string { return TierOCR }

// Ready reports whether the underlying engine can accept work.
func (d *OCRDecoder) Ready() bool { return d.engine != nil && d.engine.Ready() }

func (d *OCRDecoder) Decode(ctx context.Context, f capture.Frame) (Result, error) {
	if f.Empty() || d.engine == nil {
		return NotFound(), nil
	}
	roi := capture.CenterCrop(f, d.roiFraction)
	text, err := d.engine.Recognize(ctx, roi.Image())
	if err != nil {
		return NotFound(), err
	}
	return Found(text, TierOCR), nil
}
