package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestFitSize(t *testing.T) {
	cases := []struct {
		w, h, mw, mh int
		ww, wh       int
	}{
		{1280, 720, 400, 225, 400, 225},
		{720, 1280, 400, 225, 127, 225},
		{100, 50, 400, 225, 100, 50},
		{0, 10, 400, 225, 0, 0},
		{1000, 1, 10, 10, 10, 1},
	}
	for _, c := range cases {
		gw, gh := FitSize(c.w, c.h, c.mw, c.mh)
		if gw != c.ww || gh != c.wh {
			t.Fatalf("FitSize(%d,%d,%d,%d)=(%d,%d) want (%d,%d)", c.w, c.h, c.mw, c.mh, gw, gh, c.ww, c.wh)
		}
	}
}

func TestScaleToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 800; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	out := ScaleToFit(src, 200, 200)
	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("unexpected bounds %v", b)
	}
	if r, _, _, _ := out.At(100, 50).RGBA(); r>>8 != 200 {
		t.Fatalf("colour not preserved: %d", r>>8)
	}
	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if ScaleToFit(small, 200, 200) != image.Image(small) {
		t.Fatalf("images that fit must be returned as-is")
	}
	if ScaleToFit(nil, 10, 10) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestEncodePNG(t *testing.T) {
	data := EncodePNG(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds %v", b)
	}
	if EncodePNG(nil) != nil {
		t.Fatalf("nil image must encode to nil")
	}
}
