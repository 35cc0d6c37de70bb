package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Camera sources understood by the capture layer.
const (
	SourceDevice = "device"
	SourceScreen = "screen"
)

// OCRWhitelist is the character set the serial OCR tier is constrained to.
const OCRWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-"

// Config holds runtime configuration for capture, decoding and app behavior.
// Fields may be loaded from a JSON or YAML file and overridden by command-line flags.
type Config struct {
	Debug    bool   `json:"debug" yaml:"debug"`
	LogLevel string `json:"log_level" yaml:"log_level"`

	Camera CameraConfig `json:"camera" yaml:"camera"`
	Decode DecodeConfig `json:"decode" yaml:"decode"`
	OCR    OCRConfig    `json:"ocr" yaml:"ocr"`
	UI     UIConfig     `json:"ui" yaml:"ui"`
}

// CameraConfig selects and constrains the frame source.
type CameraConfig struct {
	Source   string `json:"source" yaml:"source"`       // device | screen
	DeviceID string `json:"device_id" yaml:"device_id"` // empty picks the first camera
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
	FPS      int    `json:"fps" yaml:"fps"`

	// Screen source selection rectangle; zero size captures the full screen.
	SelectionX int `json:"selection_x" yaml:"selection_x"`
	SelectionY int `json:"selection_y" yaml:"selection_y"`
	SelectionW int `json:"selection_w" yaml:"selection_w"`
	SelectionH int `json:"selection_h" yaml:"selection_h"`
}

// DecodeConfig tunes the two fast decoding tiers.
type DecodeConfig struct {
	Native    bool `json:"native" yaml:"native"` // use the platform detector when compiled in
	TryHarder bool `json:"try_harder" yaml:"try_harder"`
}

// OCRConfig configures the optical-recognition tier and its throttle.
type OCRConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	Language       string  `json:"language" yaml:"language"`
	Whitelist      string  `json:"whitelist" yaml:"whitelist"`
	PageSegMode    int     `json:"page_seg_mode" yaml:"page_seg_mode"`
	WarmupFrames   uint64  `json:"warmup_frames" yaml:"warmup_frames"`
	IntervalFrames uint64  `json:"interval_frames" yaml:"interval_frames"`
	ROIFraction    float64 `json:"roi_fraction" yaml:"roi_fraction"`
}

// UIConfig holds window behaviour.
type UIConfig struct {
	TickMs       int  `json:"tick_ms" yaml:"tick_ms"`             // frame-presentation interval
	PreviewEvery int  `json:"preview_every" yaml:"preview_every"` // refresh preview every N ticks
	Dark         bool `json:"dark" yaml:"dark"`
}

// pageSegSingleBlock is Tesseract's "assume a single uniform block of text".
const pageSegSingleBlock = 6

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Camera: CameraConfig{
			Source: SourceDevice,
			Width:  1280,
			Height: 720,
			FPS:    30,
		},
		Decode: DecodeConfig{
			Native:    true,
			TryHarder: true,
		},
		OCR: OCRConfig{
			Enabled:        true,
			Language:       "eng",
			Whitelist:      OCRWhitelist,
			PageSegMode:    pageSegSingleBlock,
			WarmupFrames:   60,
			IntervalFrames: 30,
			ROIFraction:    1.0,
		},
		UI: UIConfig{
			TickMs:       33,
			PreviewEvery: 3,
		},
	}
}

// Validate clamps/normalizes values to safe ranges. It only fails on values
// that cannot be repaired.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	case "":
		c.LogLevel = "info"
	default:
		return fmt.Errorf("config: invalid log_level %q; valid values: debug, info, warn, error", c.LogLevel)
	}
	switch c.Camera.Source {
	case SourceDevice, SourceScreen:
	case "":
		c.Camera.Source = SourceDevice
	default:
		return fmt.Errorf("config: invalid camera.source %q; valid values: device, screen", c.Camera.Source)
	}
	if c.Camera.Width <= 0 {
		c.Camera.Width = 1280
	}
	if c.Camera.Height <= 0 {
		c.Camera.Height = 720
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 120 {
		c.Camera.FPS = 30
	}
	if c.Camera.SelectionW < 0 || c.Camera.SelectionH < 0 {
		c.Camera.SelectionW, c.Camera.SelectionH = 0, 0
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.OCR.Whitelist == "" {
		c.OCR.Whitelist = OCRWhitelist
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		c.OCR.PageSegMode = pageSegSingleBlock
	}
	if c.OCR.IntervalFrames == 0 {
		c.OCR.IntervalFrames = 30
	}
	if c.OCR.ROIFraction <= 0 || c.OCR.ROIFraction > 1 {
		c.OCR.ROIFraction = 1.0
	}
	if c.UI.TickMs <= 0 {
		c.UI.TickMs = 33
	}
	if c.UI.PreviewEvery <= 0 {
		c.UI.PreviewEvery = 3
	}
	return nil
}

// isYAML reports whether path should be treated as a YAML document.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load attempts to read configuration from the given file path. JSON is the
// default format; .yaml/.yml files are decoded as YAML. If the file does not
// exist it returns DefaultConfig(). On decode error it returns defaults with the error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}
	defer f.Close()
	return Decode(f, isYAML(path))
}

// Decode reads a configuration document layered over the defaults.
func Decode(r io.Reader, yamlDoc bool) (*Config, error) {
	cfg := DefaultConfig()
	if yamlDoc {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return DefaultConfig(), fmt.Errorf("config: decode yaml: %w", err)
		}
	} else {
		dec := json.NewDecoder(r)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return DefaultConfig(), fmt.Errorf("config: decode json: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Save writes the configuration to the given path, JSON unless the extension
// says YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
