package scanner

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/soocke/serialscan/config"
	"github.com/soocke/serialscan/domain/capture/capturetest"
	"github.com/soocke/serialscan/domain/decode"
	"github.com/soocke/serialscan/domain/ocr"
	"github.com/soocke/serialscan/domain/scan"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func qrImage(t *testing.T, text string) image.Image {
	t.Helper()
	bm, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rgba := image.NewRGBA(bm.Bounds())
	draw.Draw(rgba, rgba.Bounds(), bm, bm.Bounds().Min, draw.Src)
	return rgba
}

type textRecognizer struct{ text string }

func (r textRecognizer) Recognize(context.Context, image.Image) (string, error) { return r.text, nil }
func (r textRecognizer) Close() error                                           { return nil }

func fastConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Camera.FPS = 120
	cfg.OCR.WarmupFrames = 2
	cfg.OCR.IntervalFrames = 1
	return cfg
}

func build(t *testing.T, cfg *config.Config, opts Options) *Container {
	t.Helper()
	absent := decode.Absent()
	opts.Native = &absent
	opts.Headless = true
	c, err := Build(context.Background(), cfg, discardLogger(), opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
	return c
}

func TestRun_ImageTierFindsSerial(t *testing.T) {
	cam := &capturetest.Camera{Frames: []image.Image{qrImage(t, "evcs-001234")}}
	c := build(t, fastConfig(), Options{Camera: cam})

	serial, err := c.Run(context.Background(), 5*time.Second)
	if err != nil || serial != "EVCS-001234" {
		t.Fatalf("serial=%q err=%v", serial, err)
	}
	if got, _, _ := c.Scan.Result(); got != "EVCS-001234" {
		t.Fatalf("model serial=%q", got)
	}
	if c.Lifecycle.State() != scan.StateStopped {
		t.Fatalf("state=%v", c.Lifecycle.State())
	}
	deadline := time.Now().Add(time.Second)
	for cam.OpenTracks() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if cam.OpenTracks() != 0 {
		t.Fatalf("camera not released")
	}
}

func TestRun_OCRTierFindsSerial(t *testing.T) {
	cam := &capturetest.Camera{Frames: []image.Image{capturetest.Solid(64, 48, color.White)}}
	factory := func(context.Context, ocr.Options) (ocr.Recognizer, error) {
		return textRecognizer{text: " evcs-42\n"}, nil
	}
	c := build(t, fastConfig(), Options{Camera: cam, OCRFactory: factory})

	serial, err := c.Run(context.Background(), 5*time.Second)
	if err != nil || serial != "EVCS-42" {
		t.Fatalf("serial=%q err=%v", serial, err)
	}
	if m := c.Lifecycle.Metrics(); m.OCRAttempts == 0 || m.FrameCount < 2 {
		t.Fatalf("metrics %+v", m)
	}
}

func TestRun_CameraDenied(t *testing.T) {
	cam := &capturetest.Camera{Err: errors.New("NotAllowedError: Permission denied")}
	c := build(t, fastConfig(), Options{Camera: cam})

	_, err := c.Run(context.Background(), time.Second)
	if err == nil {
		t.Fatalf("expected camera error")
	}
	_, msg, _ := c.Scan.Result()
	if !strings.HasPrefix(msg, "Camera access failed:") {
		t.Fatalf("error banner %q", msg)
	}
}

func TestRun_Timeout(t *testing.T) {
	cam := &capturetest.Camera{Frames: []image.Image{capturetest.Solid(32, 32, color.Black)}}
	cfg := fastConfig()
	cfg.OCR.Enabled = false
	c := build(t, cfg, Options{Camera: cam})

	_, err := c.Run(context.Background(), 200*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if c.Engine != nil {
		t.Fatalf("disabled OCR must not build an engine")
	}
	if c.Lifecycle.OCRState() != ocr.StateTerminated {
		t.Fatalf("ocr state %v", c.Lifecycle.OCRState())
	}
}

func TestRun_RequiresHeadless(t *testing.T) {
	absent := decode.Absent()
	c, err := Build(context.Background(), fastConfig(), discardLogger(), Options{Camera: &capturetest.Camera{}, Native: &absent})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close(context.Background())
	if c.Pulse == nil {
		t.Fatalf("windowed container needs a pulse clock")
	}
	if _, err := c.Run(context.Background(), time.Millisecond); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConstraints(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Camera.SelectionX, cfg.Camera.SelectionY = 10, 20
	cfg.Camera.SelectionW, cfg.Camera.SelectionH = 100, 50
	got := Constraints(cfg)
	if got.Selection != image.Rect(10, 20, 110, 70) || got.FrameRate != 30 || got.Width != 1280 {
		t.Fatalf("constraints %+v", got)
	}
	if !Constraints(config.DefaultConfig()).Selection.Empty() {
		t.Fatalf("default selection must be empty")
	}
}

func TestRun_RepeatedRunsIgnoreEarlierResults(t *testing.T) {
	cam := &capturetest.Camera{Err: errors.New("NotAllowedError: Permission denied")}
	c := build(t, fastConfig(), Options{Camera: cam})

	if _, err := c.Run(context.Background(), time.Second); err == nil {
		t.Fatalf("expected camera error")
	}

	cam.Err = nil
	cam.Frames = []image.Image{qrImage(t, "evcs-7")}
	for i := 0; i < 2; i++ {
		serial, err := c.Run(context.Background(), 5*time.Second)
		if err != nil || serial != "EVCS-7" {
			t.Fatalf("run %d: serial=%q err=%v", i, serial, err)
		}
	}
	if cam.Requests() != 3 {
		t.Fatalf("camera requests=%d", cam.Requests())
	}
}
