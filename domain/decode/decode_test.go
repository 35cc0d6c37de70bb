package decode

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/soocke/serialscan/domain/capture"
)

func blankFrame(w, h int) capture.Frame {
	return capture.FrameFromImage(image.NewRGBA(image.Rect(0, 0, w, h)), 1, time.Now())
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		" evcs-001234 ": "EVCS-001234",
		"EVCS-001234":   "EVCS-001234",
		"\tabc\n":       "ABC",
		"   ":           "",
	}
	for in, want := range cases {
		got := Normalize(in)
		if got != want {
			t.Fatalf("Normalize(%q)=%q want %q", in, got, want)
		}
		if again := Normalize(got); again != got {
			t.Fatalf("Normalize not idempotent for %q: %q -> %q", in, got, again)
		}
	}
}

func TestFound_EmptySerialIsNotFound(t *testing.T) {
	if r := Found("  \n", TierImage); r.Found {
		t.Fatalf("whitespace serial must be NotFound, got %+v", r)
	}
	r := Found(" evcs-9 ", TierOCR)
	if !r.Found || r.Serial != "EVCS-9" || r.Source != TierOCR {
		t.Fatalf("unexpected result %+v", r)
	}
}

type fakeDetector struct {
	codes  []Barcode
	err    error
	closed int
}

func (d *fakeDetector) Detect(context.Context, capture.Frame) ([]Barcode, error) { return d.codes, d.err }
func (d *fakeDetector) Close() error                                          { d.closed++; return nil }

func TestNativeSupport(t *testing.T) {
	if Absent().Available() || Absent().Decoder() != nil {
		t.Fatalf("absent support must expose no decoder")
	}
	if err := Absent().Close(); err != nil {
		t.Fatalf("close absent: %v", err)
	}
	det := &fakeDetector{codes: []Barcode{{RawValue: " a-1 "}, {RawValue: "b-2"}}}
	ns := Present(det)
	if !ns.Available() {
		t.Fatalf("present support must be available")
	}
	r, err := ns.Decoder().Decode(context.Background(), blankFrame(4, 4))
	if err != nil || !r.Found || r.Serial != "A-1" || r.Source != TierNative {
		t.Fatalf("unexpected native result %+v err=%v", r, err)
	}
	_ = ns.Close()
	if det.closed != 1 {
		t.Fatalf("detector not closed")
	}
}

func TestNativeDecoder_ErrorsAndEmpty(t *testing.T) {
	d := Present(&fakeDetector{err: errors.New("transient")}).Decoder()
	if r, err := d.Decode(context.Background(), blankFrame(4, 4)); err == nil || r.Found {
		t.Fatalf("expected error and NotFound, got %+v %v", r, err)
	}
	d = Present(&fakeDetector{}).Decoder()
	if r, err := d.Decode(context.Background(), blankFrame(4, 4)); err != nil || r.Found {
		t.Fatalf("expected clean NotFound, got %+v %v", r, err)
	}
}

type fakePixels struct {
	text  string
	ok    bool
	calls int
}

func (p *fakePixels) DecodePixels([]byte, int, int) (string, bool) {
	p.calls++
	return p.text, p.ok
}

func TestImageDecoder(t *testing.T) {
	px := &fakePixels{text: "evcs-42", ok: true}
	d := NewImageDecoder(px)
	r, err := d.Decode(context.Background(), blankFrame(4, 4))
	if err != nil || !r.Found || r.Serial != "EVCS-42" || r.Source != TierImage {
		t.Fatalf("unexpected %+v %v", r, err)
	}
	if r, _ := d.Decode(context.Background(), capture.Frame{}); r.Found || px.calls != 1 {
		t.Fatalf("empty frame must not reach the pixel decoder")
	}
}

func TestZXingDecoder_RoundTrip(t *testing.T) {
	bm, err := qrcode.NewQRCodeWriter().Encode("evcs-001234", gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rgba := image.NewRGBA(bm.Bounds())
	draw.Draw(rgba, rgba.Bounds(), bm, bm.Bounds().Min, draw.Src)
	f := capture.FrameFromImage(rgba, 1, time.Now())

	r, err := NewImageDecoder(nil).Decode(context.Background(), f)
	if err != nil || !r.Found || r.Serial != "EVCS-001234" {
		t.Fatalf("expected decoded serial, got %+v err=%v", r, err)
	}
	if _, ok := (ZXingDecoder{}).DecodePixels(blankFrame(64, 64).Pix, 64, 64); ok {
		t.Fatalf("blank frame must not decode")
	}
	if _, ok := (ZXingDecoder{}).DecodePixels(nil, 10, 10); ok {
		t.Fatalf("short buffer must not decode")
	}
}

type fakeEngine struct {
	text  string
	err   error
	ready bool
	last  image.Image
}

func (e *fakeEngine) Recognize(_ context.Context, img image.Image) (string, error) {
	e.last = img
	return e.text, e.err
}
func (e *fakeEngine) Ready() bool { return e.ready }

func TestOCRDecoder_CropsAndNormalizes(t *testing.T) {
	eng := &fakeEngine{text: " evcs-7\n", ready: true}
	d := NewOCRDecoder(eng, 0.5)
	if !d.Ready() {
		t.Fatalf("expected ready")
	}
	r, err := d.Decode(context.Background(), blankFrame(20, 10))
	if err != nil || !r.Found || r.Serial != "EVCS-7" || r.Source != TierOCR {
		t.Fatalf("unexpected %+v %v", r, err)
	}
	if b := eng.last.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Fatalf("expected cropped 10x5 image, got %v", b)
	}
	eng.err = errors.New("busy")
	if r, err := d.Decode(context.Background(), blankFrame(20, 10)); err == nil || r.Found {
		t.Fatalf("expected error to surface to the caller, got %+v %v", r, err)
	}
	if NewOCRDecoder(nil, 1).Ready() {
		t.Fatalf("nil engine must not be ready")
	}
}
