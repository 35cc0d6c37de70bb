package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/serialscan/config"
	"github.com/soocke/serialscan/domain/capture"
	"github.com/soocke/serialscan/domain/decode"
	"github.com/soocke/serialscan/domain/ocr"
	"github.com/soocke/serialscan/domain/scan"
	"github.com/soocke/serialscan/observe"
	"github.com/soocke/serialscan/ui/model"
	"github.com/soocke/serialscan/ui/presenter"
)

// Options override collaborators that depend on the host.
type Options struct {
	Version string
	// Camera replaces the camera chosen by cfg.Camera.Source.
	Camera capture.Camera
	// OCRFactory loads the recognizer. Nil disables the OCR tier.
	OCRFactory ocr.Factory
	// Native replaces decode.DetectNative.
	Native *decode.NativeSupport
	// Headless drives the scan loop from a ticker at the camera frame rate
	// instead of the window's tick.
	Headless bool
}

// Container assembles the scan domain and the models the window reads.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Telemetry *observe.Provider
	Metrics   *observe.Metrics

	Source    *capture.Source
	Engine    *ocr.Engine
	Native    decode.NativeSupport
	Pipeline  *scan.Pipeline
	Scheduler *scan.Scheduler
	Lifecycle *scan.Lifecycle

	Scan    *model.ScanModel
	Session *model.SessionModel
	// Pulse is non-nil when the window drives the scan loop.
	Pulse *scan.Pulse

	ticker *scan.TickerClock
	found  chan string
	failed chan string
}

// Build constructs all components. Nothing touches the camera until
// Lifecycle.Start.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Scan:    &model.ScanModel{},
		Session: model.NewSessionModel(),
		found:   make(chan string, 1),
		failed:  make(chan string, 1),
	}

	tp, err := observe.NewProvider(ctx, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	c.Telemetry = tp
	if c.Metrics, err = observe.NewMetrics(tp.MeterProvider); err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("telemetry instruments: %w", err)
	}

	camera := opts.Camera
	if camera == nil {
		camera = NewCamera(cfg, logger)
	}
	c.Source = capture.NewSource(camera, Constraints(cfg), logger)

	switch {
	case opts.Native != nil:
		c.Native = *opts.Native
	case cfg.Decode.Native:
		c.Native = decode.DetectNative()
	default:
		c.Native = decode.Absent()
	}

	var ocrTier scan.OCRTier
	if cfg.OCR.Enabled && opts.OCRFactory != nil {
		c.Engine = ocr.NewEngine(opts.OCRFactory, ocr.Options{
			Language:    cfg.OCR.Language,
			Whitelist:   cfg.OCR.Whitelist,
			PageSegMode: cfg.OCR.PageSegMode,
		}, logger)
		ocrTier = decode.NewOCRDecoder(c.Engine, cfg.OCR.ROIFraction)
	}

	c.Pipeline = scan.NewPipeline(scan.PipelineConfig{
		Native:      c.Native.Decoder(),
		Image:       decode.NewImageDecoder(decode.ZXingDecoder{TryHarder: cfg.Decode.TryHarder}),
		OCR:         ocrTier,
		Throttle:    scan.Throttle{Warmup: cfg.OCR.WarmupFrames, Interval: cfg.OCR.IntervalFrames},
		Logger:      logger,
		Instruments: c.Metrics,
	})

	var clock scan.FrameClock
	if opts.Headless {
		c.ticker = scan.NewTickerClock(float64(cfg.Camera.FPS))
		clock = c.ticker
	} else {
		c.Pulse = scan.NewPulse()
		clock = c.Pulse
	}
	c.Scheduler = scan.NewScheduler(c.Pipeline, clock, logger, c.Metrics)

	c.Lifecycle = scan.NewLifecycle(scan.LifecycleDeps{
		Source:      c.Source,
		Engine:      c.Engine,
		Scheduler:   c.Scheduler,
		Native:      c.Native,
		Callbacks:   c.callbacks(),
		Logger:      logger,
		Instruments: c.Metrics,
	})
	return c, nil
}

// callbacks feed the scan model and the headless result channels.
func (c *Container) callbacks() scan.Callbacks {
	ui := presenter.Callbacks(c.Scan, c.Logger)
	return scan.Callbacks{
		OnSerialFound: func(serial string) {
			ui.OnSerialFound(serial)
			select {
			case c.found <- serial:
			default:
			}
		},
		OnError: func(msg string) {
			ui.OnError(msg)
			select {
			case c.failed <- msg:
			default:
			}
		},
	}
}

// Close stops scanning, terminates the OCR engine and flushes telemetry.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Lifecycle != nil {
		if err := c.Lifecycle.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ticker != nil {
		c.ticker.Stop()
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCamera returns the camera named by cfg.Camera.Source.
func NewCamera(cfg *config.Config, logger *slog.Logger) capture.Camera {
	if cfg.Camera.Source == config.SourceScreen {
		return capture.NewScreenCamera()
	}
	return capture.NewDeviceCamera(logger)
}

// Constraints maps the camera section of cfg onto capture constraints.
func Constraints(cfg *config.Config) capture.Constraints {
	cc := cfg.Camera
	return capture.Constraints{
		DeviceID:  cc.DeviceID,
		Width:     cc.Width,
		Height:    cc.Height,
		FrameRate: float64(cc.FPS),
		Selection: image.Rect(cc.SelectionX, cc.SelectionY, cc.SelectionX+cc.SelectionW, cc.SelectionY+cc.SelectionH),
	}
}
