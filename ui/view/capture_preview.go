package view

import (
	"image"

	"github.com/soocke/serialscan/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the latest camera frame while scanning.
type CapturePreview interface {
	UpdateCapture(img image.Image)
	Reset()
}

type capturePreview struct {
	label     *LabelWidget
	maxW      int
	maxH      int
	prevPhoto *Img // disposed before replacement so old pixel data is freed
}

const (
	maxPreviewW = 480
	maxPreviewH = 270
)

// NewCapturePreview creates the preview label spanning columns 0-4 of row.
func NewCapturePreview(row int) CapturePreview {
	photo := NewPhoto(Data(placeholderPNG()))
	lbl := Label(Image(photo), Borderwidth(1), Relief("sunken"))
	Grid(lbl, Row(row), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	return &capturePreview{label: lbl, maxW: maxPreviewW, maxH: maxPreviewH, prevPhoto: photo}
}

func placeholderPNG() []byte {
	return images.EncodePNG(image.NewRGBA(image.Rect(0, 0, 320, 180)))
}

func (v *capturePreview) UpdateCapture(img image.Image) {
	if v == nil || v.label == nil || img == nil {
		return
	}
	pngBytes := images.EncodePNG(images.ScaleToFit(img, v.maxW, v.maxH))
	if len(pngBytes) == 0 {
		return
	}
	v.replace(pngBytes)
}

func (v *capturePreview) Reset() {
	if v == nil || v.label == nil {
		return
	}
	v.replace(placeholderPNG())
}

func (v *capturePreview) replace(pngBytes []byte) {
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(pngBytes))
	v.label.Configure(Image(v.prevPhoto))
}
