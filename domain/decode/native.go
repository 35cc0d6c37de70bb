package decode

import (
	"context"
	"fmt"

	"github.com/soocke/serialscan/domain/capture"
)

// Barcode is one symbol reported by a platform detector.
type Barcode struct {
	RawValue string
}

// BarcodeDetector is a platform-provided QR detector.
type BarcodeDetector interface {
	Detect(ctx context.Context, f capture.Frame) ([]Barcode, error)
	Close() error
}

// NativeSupport records whether a platform detector exists. It is resolved
// once at startup and never changes for the life of the process.
type NativeSupport struct {
	detector BarcodeDetector
}

// Present wraps an available detector.
func Present(d BarcodeDetector) NativeSupport { return NativeSupport{detector: d} }

// Absent reports no platform detector.
func Absent() NativeSupport { return NativeSupport{} }

// Available reports whether tier 1 can run.
func (n NativeSupport) Available() bool { return n.detector != nil }

// Decoder returns the tier 1 decoder, or nil when Absent.
func (n NativeSupport) Decoder() Decoder {
	if n.detector == nil {
		return nil
	}
	return &NativeDecoder{detector: n.detector}
}

// Close releases the platform detector, if any.
func (n NativeSupport) Close() error {
	if n.detector == nil {
		return nil
	}
	return n.detector.Close()
}

// NativeDecoder takes the first symbol reported by the platform detector.
type NativeDecoder struct {
	detector BarcodeDetector
}

func (d *NativeDecoder) Name() string { return TierNative }

func (d *NativeDecoder) Decode(ctx context.Context, f capture.Frame) (Result, error) {
	if f.Empty() {
		return NotFound(), nil
	}
	codes, err := d.detector.Detect(ctx, f)
	if err != nil {
		return NotFound(), fmt.Errorf("native detect: %w", err)
	}
	if len(codes) == 0 {
		return NotFound(), nil
	}
	return Found(codes[0].RawValue, TierNative), nil
}
