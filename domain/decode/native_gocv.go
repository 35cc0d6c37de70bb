//go:build gocv

package decode

import (
	"context"
	"sync"

	"gocv.io/x/gocv"

	"github.com/soocke/serialscan/domain/capture"
)

// DetectNative returns OpenCV's QR detector as the native tier.
func DetectNative() NativeSupport {
	return Present(&cvDetector{qr: gocv.NewQRCodeDetector()})
}

type cvDetector struct {
	mu sync.Mutex
	qr gocv.QRCodeDetector
}

func (d *cvDetector) Detect(_ context.Context, f capture.Frame) ([]Barcode, error) {
	rgba, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC4, f.Pix)
	if err != nil {
		return nil, err
	}
	defer rgba.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgba, &gray, gocv.ColorRGBAToGray)

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	d.mu.Lock()
	text := d.qr.DetectAndDecode(gray, &points, &straight)
	d.mu.Unlock()
	if text == "" {
		return nil, nil
	}
	return []Barcode{{RawValue: text}}, nil
}

func (d *cvDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.qr.Close()
}
