package view

import (
	"image"
	"log/slog"
	"time"

	"github.com/soocke/serialscan/config"
	"github.com/soocke/serialscan/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are invoked on user actions.
type Handlers struct {
	OnToggleScan  func()
	OnSubmit      func(text string) bool
	OnClear       func()
	OnToggleTheme func()
	OnExit        func()
}

// RootView composes the scanner window and exposes the setters presenters
// need.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Stats       ScanStats
	ConfigPanel ConfigPanel
	CapturePrev CapturePreview
	Manual      ManualEntry

	// Widgets
	StateLabel  *LabelWidget
	SerialLabel *TLabelWidget
	ErrorLabel  *TLabelWidget
	CapsLabel   *TLabelWidget
	ScanButton  *TButtonWidget
}

// UI abstracts the subset of view operations needed by presenters.
type UI interface {
	SetStateLabel(text string)
	SetSerial(text string)
	SetError(msg string)
	SetCounters(frames, ocrAttempts uint64)
	SetCapabilities(text string)
	SetSession(scan, total time.Duration, scans int)
	UpdateCapture(img image.Image)
	PreviewReset()
	ConfigEditable(enabled bool)
	SetScanButton(scanning bool)
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	// Row 0: stats, state label, buttons frame
	statsFrame := Frame()
	Grid(statsFrame, Row(0), Column(0), Columnspan(2), Sticky("w"), Padx("0.3m"), Pady("0.3m"))
	rv.Stats = NewScanStats(statsFrame, 0)
	rv.StateLabel = Label(Txt("State: <none>"), Borderwidth(1), Relief("ridge"))
	Grid(rv.StateLabel, Row(0), Column(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(4), Rowspan(4), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	rv.ScanButton = TButton(Style(theme.StylePrimaryButton), Txt("Scan"), Command(h.OnToggleScan))
	Grid(rv.ScanButton, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	clearBtn := Button(Txt("Clear"), Command(h.OnClear))
	Grid(clearBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	themeBtn := Button(Txt("Theme"), Command(h.OnToggleTheme))
	Grid(themeBtn, In(btnFrame), Row(2), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	exitBtn := TButton(Style(theme.StyleDangerButton), Txt("Exit"), Command(h.OnExit))
	Grid(exitBtn, In(btnFrame), Row(3), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	// Rows 1-3: result readout
	rv.SerialLabel = TLabel(Style(theme.StyleSerialLabel), Txt("No serial number found"), Anchor("w"))
	Grid(rv.SerialLabel, Row(1), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.ErrorLabel = TLabel(Style(theme.StyleErrorLabel), Txt(""), Anchor("w"))
	Grid(rv.ErrorLabel, Row(2), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"))
	rv.CapsLabel = TLabel(Style(theme.StyleMutedLabel), Txt(""), Anchor("w"))
	Grid(rv.CapsLabel, Row(3), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"))

	rv.Manual = NewManualEntry(4, h.OnSubmit)

	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger)
	endRow := rv.ConfigPanel.Build(5)

	rv.CapturePrev = NewCapturePreview(endRow)
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

// SetSerial shows the found serial or the placeholder.
func (rv *RootView) SetSerial(text string) {
	if rv != nil && rv.SerialLabel != nil {
		rv.SerialLabel.Configure(Txt(text))
	}
}

// SetError shows msg in the error banner; empty hides it.
func (rv *RootView) SetError(msg string) {
	if rv != nil && rv.ErrorLabel != nil {
		rv.ErrorLabel.Configure(Txt(msg))
	}
}

func (rv *RootView) SetCapabilities(text string) {
	if rv != nil && rv.CapsLabel != nil {
		rv.CapsLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetCounters(frames, ocrAttempts uint64) {
	if rv != nil && rv.Stats != nil {
		rv.Stats.SetCounters(frames, ocrAttempts)
	}
}

func (rv *RootView) SetSession(scan, total time.Duration, scans int) {
	if rv != nil && rv.Stats != nil {
		rv.Stats.SetSession(scan, total, scans)
	}
}

// UpdateCapture proxies to the capture preview.
func (rv *RootView) UpdateCapture(img image.Image) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.UpdateCapture(img)
	}
}

// PreviewReset clears the capture preview.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.Reset()
	}
}

// ConfigEditable toggles config panel editability.
func (rv *RootView) ConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}

// SetScanButton labels the toggle for the current scanning state.
func (rv *RootView) SetScanButton(scanning bool) {
	if rv == nil || rv.ScanButton == nil {
		return
	}
	if scanning {
		rv.ScanButton.Configure(Txt("Stop"))
		return
	}
	rv.ScanButton.Configure(Txt("Scan"))
}
