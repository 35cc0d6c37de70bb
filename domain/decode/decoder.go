package decode

import (
	"context"

	"github.com/soocke/serialscan/domain/capture"
)

// Tier names used in Result.Source, logs and metrics.
const (
	TierNative = "native"
	TierImage  = "image"
	TierOCR    = "ocr"
	TierManual = "manual"
)

// Decoder extracts at most one serial from a frame. Implementations return a
// non-nil error only for failures; an image without a code is NotFound.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, f capture.Frame) (Result, error)
}

// PixelDecoder locates and decodes a QR symbol in raw RGBA pixels.
type PixelDecoder interface {
	DecodePixels(pix []byte, width, height int) (string, bool)
}
