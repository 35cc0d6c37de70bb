package presenter

import (
	"fmt"
	"image"

	"github.com/soocke/serialscan/domain/capture"
	"github.com/soocke/serialscan/domain/ocr"
	"github.com/soocke/serialscan/domain/scan"
)

// NoSerial is shown while no serial has been found.
const NoSerial = "No serial number found"

// ResultSource exposes the scan state the window renders.
type ResultSource interface {
	LatestFrame() (capture.Frame, bool)
	Metrics() scan.MetricsSnapshot
	OCRState() ocr.State
	NativeAvailable() bool
}

// ResultModel is the read side of the scan model.
type ResultModel interface {
	Scanning() bool
	Result() (serial, errMsg string, version uint64)
}

// ResultView renders serial, errors, counters and the camera preview.
type ResultView interface {
	SetSerial(text string)
	SetError(msg string)
	SetCounters(frames, ocrAttempts uint64)
	SetCapabilities(text string)
	UpdateCapture(img image.Image)
}

// ResultPresenter pushes model and lifecycle state to the view on each tick.
// The preview is refreshed every previewEvery ticks while scanning.
type ResultPresenter struct {
	source       ResultSource
	model        ResultModel
	view         ResultView
	previewEvery int

	ticks       int
	lastVersion uint64
	lastSeq     uint64
	lastMetrics scan.MetricsSnapshot
	lastCaps    string
	primed      bool
}

func NewResultPresenter(source ResultSource, model ResultModel, view ResultView, previewEvery int) *ResultPresenter {
	if previewEvery < 1 {
		previewEvery = 1
	}
	return &ResultPresenter{source: source, model: model, view: view, previewEvery: previewEvery}
}

func (p *ResultPresenter) Tick() {
	if p == nil || p.source == nil || p.model == nil || p.view == nil {
		return
	}
	serial, errMsg, version := p.model.Result()
	if !p.primed || version != p.lastVersion {
		p.lastVersion = version
		if serial == "" {
			serial = NoSerial
		}
		p.view.SetSerial(serial)
		p.view.SetError(errMsg)
	}

	m := p.source.Metrics()
	if !p.primed || m != p.lastMetrics {
		p.lastMetrics = m
		p.view.SetCounters(m.FrameCount, m.OCRAttempts)
	}

	caps := CapabilityNote(p.source.NativeAvailable(), p.source.OCRState())
	if caps != p.lastCaps {
		p.lastCaps = caps
		p.view.SetCapabilities(caps)
	}
	p.primed = true

	if !p.model.Scanning() {
		return
	}
	p.ticks++
	if p.ticks%p.previewEvery != 0 {
		return
	}
	f, ok := p.source.LatestFrame()
	if !ok || f.Sequence == p.lastSeq {
		return
	}
	p.lastSeq = f.Sequence
	p.view.UpdateCapture(f.Image())
}

// CapabilityNote describes which decoder tiers are usable.
func CapabilityNote(native bool, ocrState ocr.State) string {
	nativeText := "unavailable"
	if native {
		nativeText = "available"
	}
	ocrText := ocrState.String()
	if ocrState == ocr.StateTerminated {
		ocrText = "off"
	}
	return fmt.Sprintf("Native QR: %s | Image QR: on | OCR: %s", nativeText, ocrText)
}
