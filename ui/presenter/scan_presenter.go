package presenter

import (
	"context"
	"log/slog"

	"github.com/soocke/serialscan/domain/scan"
)

// ScanStateModel stores scanning state and the reported result.
type ScanStateModel interface {
	Scanning() bool
	SetScanning(bool)
	SetSerial(string)
	SetError(string)
	Clear()
}

// ScanLifecycle narrows what the presenter needs from scan.Lifecycle.
type ScanLifecycle interface {
	Start(ctx context.Context) error
	Stop()
	Submit(text string) bool
	State() scan.State
}

// ScanView updates UI elements affected by starting and stopping a scan.
type ScanView interface {
	PreviewReset()
	ConfigEditable(bool)
	SetScanButton(scanning bool)
}

// ScanPresenter owns presentation logic for the scan toggle, manual entry and
// the result callbacks.
type ScanPresenter struct {
	ctx    context.Context
	model  ScanStateModel
	life   ScanLifecycle
	view   ScanView
	logger *slog.Logger
}

func NewScanPresenter(ctx context.Context, model ScanStateModel, life ScanLifecycle, view ScanView, logger *slog.Logger) *ScanPresenter {
	return &ScanPresenter{ctx: ctx, model: model, life: life, view: view, logger: logger}
}

func (p *ScanPresenter) ready() bool {
	return p != nil && p.model != nil && p.life != nil && p.view != nil
}

// Enable starts a scan. Idempotent. A refused camera reaches the model
// through OnError and leaves the presenter disabled.
func (p *ScanPresenter) Enable() {
	if !p.ready() || p.model.Scanning() {
		return
	}
	p.model.Clear()
	if err := p.life.Start(p.ctx); err != nil {
		if p.logger != nil {
			p.logger.Debug("scan start rejected", "error", err)
		}
		return
	}
	p.model.SetScanning(true)
	p.view.ConfigEditable(false)
	p.view.SetScanButton(true)
}

// Disable stops the scan and resets the preview. Idempotent.
func (p *ScanPresenter) Disable() {
	if !p.ready() || !p.model.Scanning() {
		return
	}
	p.life.Stop()
	p.finish()
	p.view.PreviewReset()
}

// Toggle flips between Enable and Disable.
func (p *ScanPresenter) Toggle() {
	if !p.ready() {
		return
	}
	if p.model.Scanning() {
		p.Disable()
		return
	}
	p.Enable()
}

// Submit reports manually typed text as the serial.
func (p *ScanPresenter) Submit(text string) bool {
	if !p.ready() {
		return false
	}
	if !p.life.Submit(text) {
		return false
	}
	p.finish()
	return true
}

// Clear drops the shown result so the user can scan again.
func (p *ScanPresenter) Clear() {
	if p == nil || p.model == nil {
		return
	}
	p.model.Clear()
}

// Tick notices scans that ended on their own, such as after a serial was
// found, and re-enables the controls.
func (p *ScanPresenter) Tick() {
	if !p.ready() || !p.model.Scanning() {
		return
	}
	if p.life.State() != scan.StateScanning {
		p.finish()
	}
}

func (p *ScanPresenter) finish() {
	p.model.SetScanning(false)
	p.view.ConfigEditable(true)
	p.view.SetScanButton(false)
}

// Callbacks returns the lifecycle callbacks writing into the model. They are
// safe to call from the scan goroutine.
func (p *ScanPresenter) Callbacks() scan.Callbacks {
	return Callbacks(p.model, p.logger)
}

// Callbacks builds lifecycle callbacks over model. Use it when the lifecycle
// has to exist before the presenter.
func Callbacks(model ScanStateModel, logger *slog.Logger) scan.Callbacks {
	return scan.Callbacks{
		OnSerialFound: func(serial string) {
			if logger != nil {
				logger.Info("serial reported", "serial", serial)
			}
			model.SetSerial(serial)
		},
		OnError: func(msg string) {
			model.SetError(msg)
		},
	}
}
