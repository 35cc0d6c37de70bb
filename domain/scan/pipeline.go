// Package scan runs captured frames through the decoder tiers and owns the
// scanning loop and session lifecycle.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/serialscan/domain/capture"
	"github.com/soocke/serialscan/domain/decode"
	"github.com/soocke/serialscan/observe"
)

// OCRTier is a decoder that may not be ready yet.
type OCRTier interface {
	decode.Decoder
	Ready() bool
}

// PipelineConfig wires the tiers. Native and OCR may be nil.
type PipelineConfig struct {
	Native      decode.Decoder
	Image       decode.Decoder
	OCR         OCRTier
	Throttle    Throttle
	Logger      *slog.Logger
	Instruments *observe.Metrics
}

// Pipeline tries native, then image, then (throttled) OCR decoding and stops
// at the first success.
type Pipeline struct {
	native      decode.Decoder
	image       decode.Decoder
	ocr         OCRTier
	throttle    Throttle
	logger      *slog.Logger
	instruments *observe.Metrics
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		native:      cfg.Native,
		image:       cfg.Image,
		ocr:         cfg.OCR,
		throttle:    cfg.Throttle,
		logger:      cfg.Logger,
		instruments: cfg.Instruments,
	}
}

// Process decodes one frame. m supplies the frame count for the OCR throttle
// and records OCR attempts. Decoder failures are treated as NotFound.
func (p *Pipeline) Process(ctx context.Context, f capture.Frame, m *Metrics) decode.Result {
	if f.Empty() {
		return decode.NotFound()
	}
	if p.native != nil {
		if r := p.try(ctx, p.native, f); r.Found {
			return r
		}
	}
	if p.image != nil {
		if r := p.try(ctx, p.image, f); r.Found {
			return r
		}
	}
	if p.ocr == nil || m == nil {
		return decode.NotFound()
	}
	if !p.ocr.Ready() || !p.throttle.Allow(m.FrameCount()) {
		p.instruments.RecordDecode(ctx, p.ocr.Name(), observe.OutcomeSkipped, 0)
		return decode.NotFound()
	}
	m.addOCR()
	return p.try(ctx, p.ocr, f)
}

func (p *Pipeline) try(ctx context.Context, d decode.Decoder, f capture.Frame) (res decode.Result) {
	start := time.Now()
	outcome := observe.OutcomeNotFound
	defer func() {
		if r := recover(); r != nil {
			res = decode.NotFound()
			outcome = observe.OutcomeError
			if p.logger != nil {
				p.logger.Debug("decoder panic", "tier", d.Name(), "error", fmt.Sprint(r))
			}
		}
		p.instruments.RecordDecode(ctx, d.Name(), outcome, time.Since(start))
	}()
	r, err := d.Decode(ctx, f)
	if err != nil {
		outcome = observe.OutcomeError
		if p.logger != nil {
			p.logger.Debug("decoder error", "tier", d.Name(), "error", err)
		}
		return decode.NotFound()
	}
	if !r.Found {
		return decode.NotFound()
	}
	src := r.Source
	if src == "" {
		src = d.Name()
	}
	n := decode.Found(r.Serial, src)
	if n.Found {
		outcome = observe.OutcomeFound
	}
	return n
}
