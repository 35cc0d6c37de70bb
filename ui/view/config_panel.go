package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/serialscan/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the scan settings form. It writes back into
// *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by internal field id
}

// NewConfigPanel creates the view bound to cfg.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("source", "Source (device/screen)", c.Camera.Source)
	makeRow("deviceID", "Camera Device ID", c.Camera.DeviceID)
	makeRow("width", "Width", fmt.Sprintf("%d", c.Camera.Width))
	makeRow("height", "Height", fmt.Sprintf("%d", c.Camera.Height))
	makeRow("fps", "Frame Rate", fmt.Sprintf("%d", c.Camera.FPS))
	makeRow("native", "Native QR (true/false)", fmt.Sprintf("%t", c.Decode.Native))
	makeRow("tryHarder", "Try Harder (true/false)", fmt.Sprintf("%t", c.Decode.TryHarder))
	makeRow("ocrEnabled", "OCR (true/false)", fmt.Sprintf("%t", c.OCR.Enabled))
	makeRow("warmup", "OCR Warmup Frames", fmt.Sprintf("%d", c.OCR.WarmupFrames))
	makeRow("interval", "OCR Interval Frames", fmt.Sprintf("%d", c.OCR.IntervalFrames))
	makeRow("roi", "OCR Region (0.1-1.0)", fmt.Sprintf("%.2f", c.OCR.ROIFraction))
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(id string) (string, bool) {
	w := v.widgets[id]
	if w == nil {
		return "", false
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), "")), true
}

// ApplyChanges persists the form. Capture and decoder settings are read at
// startup, so they take effect on the next launch.
func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg // copy
	assignInt := func(id string, dst *int) {
		if s, ok := v.text(id); ok {
			if i, ok := parseIntField(s); ok {
				*dst = i
			}
		}
	}
	assignUint := func(id string, dst *uint64) {
		if s, ok := v.text(id); ok {
			if u, ok := parseUintField(s); ok {
				*dst = u
			}
		}
	}
	assignFloat := func(id string, dst *float64) {
		if s, ok := v.text(id); ok {
			if f, ok := parseFloatField(s); ok {
				*dst = f
			}
		}
	}
	assignBool := func(id string, dst *bool) {
		if s, ok := v.text(id); ok {
			if b, ok := parseBoolLoose(s); ok {
				*dst = b
			}
		}
	}
	if s, ok := v.text("source"); ok && s != "" {
		cfg.Camera.Source = strings.ToLower(s)
	}
	if s, ok := v.text("deviceID"); ok {
		cfg.Camera.DeviceID = s
	}
	assignInt("width", &cfg.Camera.Width)
	assignInt("height", &cfg.Camera.Height)
	assignInt("fps", &cfg.Camera.FPS)
	assignBool("native", &cfg.Decode.Native)
	assignBool("tryHarder", &cfg.Decode.TryHarder)
	assignBool("ocrEnabled", &cfg.OCR.Enabled)
	assignUint("warmup", &cfg.OCR.WarmupFrames)
	assignUint("interval", &cfg.OCR.IntervalFrames)
	assignFloat("roi", &cfg.OCR.ROIFraction)
	if err := cfg.Validate(); err != nil {
		if v.logger != nil {
			v.logger.Warn("config rejected", "error", err)
		}
		return
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		return
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
}

// parsing helpers (unexported)
func parseFloatField(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
func parseUintField(s string) (uint64, bool) {
	u, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return u, true
}
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
