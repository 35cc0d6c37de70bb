package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/soocke/serialscan/domain/capture"
	"github.com/soocke/serialscan/domain/decode"
	"github.com/soocke/serialscan/domain/ocr"
	"github.com/soocke/serialscan/observe"
)

// Callbacks are the upward interface to the UI.
type Callbacks struct {
	// OnSerialFound receives a normalized serial, once per successful scan.
	OnSerialFound func(serial string)
	// OnError receives a human readable message when the camera is refused.
	OnError func(message string)
}

// LifecycleDeps collects the collaborators of a Lifecycle. Engine may be nil
// when OCR is disabled.
type LifecycleDeps struct {
	Source      *capture.Source
	Engine      *ocr.Engine
	Scheduler   *Scheduler
	Native      decode.NativeSupport
	Callbacks   Callbacks
	Logger      *slog.Logger
	Instruments *observe.Metrics
}

// Lifecycle pairs capture sessions, which come and go with user actions, with
// the OCR engine, which lives for the whole process.
type Lifecycle struct {
	source      *capture.Source
	engine      *ocr.Engine
	scheduler   *Scheduler
	native      decode.NativeSupport
	callbacks   Callbacks
	logger      *slog.Logger
	instruments *observe.Metrics

	mu      sync.Mutex
	session *capture.Session
	done    <-chan struct{}
}

func NewLifecycle(d LifecycleDeps) *Lifecycle {
	return &Lifecycle{
		source:      d.Source,
		engine:      d.Engine,
		scheduler:   d.Scheduler,
		native:      d.Native,
		callbacks:   d.Callbacks,
		logger:      d.Logger,
		instruments: d.Instruments,
	}
}

// Init starts loading the OCR engine in the background. It never blocks on
// the load; a failure only disables the OCR tier.
func (l *Lifecycle) Init(ctx context.Context) error {
	if l.engine == nil {
		if l.logger != nil {
			l.logger.Info("ocr disabled")
		}
		return nil
	}
	return l.engine.Start(ctx)
}

// Start opens the camera and begins scanning. A refused camera is reported
// through OnError and leaves the scheduler Idle (or Stopped).
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scheduler.State() == StateScanning {
		return ErrAlreadyScanning
	}
	if l.done != nil && !closed(l.done) {
		return fmt.Errorf("%w: previous scan still exiting", ErrAlreadyScanning)
	}
	sess, err := l.source.Start(ctx)
	if err != nil {
		l.instruments.RecordCameraError(ctx)
		if l.logger != nil {
			l.logger.Warn("camera unavailable", "error", err)
		}
		l.reportError(err)
		return err
	}
	l.instruments.SessionStarted(ctx)

	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			l.source.Stop(sess)
			l.instruments.SessionEnded(context.WithoutCancel(ctx))
		})
	}
	job := Job{
		Next:    func() (capture.Frame, bool) { return l.source.CaptureFrame(sess) },
		OnFound: l.report,
		Release: release,
	}
	done, err := l.scheduler.Start(ctx, job)
	if err != nil {
		release()
		return err
	}
	l.session = sess
	l.done = done
	if l.logger != nil {
		l.logger.Info("scan started", "native", l.native.Available(), "ocr", l.OCRState().String())
	}
	return nil
}

// Stop ends scanning and releases the camera immediately.
func (l *Lifecycle) Stop() {
	l.scheduler.Stop()
	l.mu.Lock()
	sess := l.session
	l.mu.Unlock()
	l.source.Stop(sess)
}

// Submit reports manually entered text as a serial. Scanning is stopped
// first so the session reports at most once. Empty input is ignored.
func (l *Lifecycle) Submit(text string) bool {
	serial := decode.Normalize(text)
	if serial == "" {
		return false
	}
	l.Stop()
	l.instruments.RecordScan(context.Background(), decode.TierManual)
	l.report(decode.Result{Serial: serial, Found: true, Source: decode.TierManual})
	return true
}

// Shutdown stops scanning, waits for the loop to exit and terminates the OCR
// engine.
func (l *Lifecycle) Shutdown(ctx context.Context) error {
	l.Stop()
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if done == nil {
			return nil
		}
		select {
		case <-done:
			return nil
		case <-gctx.Done():
			return fmt.Errorf("scan loop: %w", gctx.Err())
		}
	})
	g.Go(func() error {
		if l.engine == nil {
			return nil
		}
		return l.engine.Terminate(gctx)
	})
	g.Go(l.native.Close)
	return g.Wait()
}

// LatestFrame returns the newest frame of the running session for preview.
func (l *Lifecycle) LatestFrame() (capture.Frame, bool) {
	l.mu.Lock()
	sess := l.session
	l.mu.Unlock()
	return l.source.CaptureFrame(sess)
}

// Metrics snapshots the current session counters.
func (l *Lifecycle) Metrics() MetricsSnapshot { return l.scheduler.Metrics() }

// State returns the scheduler state.
func (l *Lifecycle) State() State { return l.scheduler.State() }

// OCRState reports the engine state; Terminated when OCR is disabled.
func (l *Lifecycle) OCRState() ocr.State {
	if l.engine == nil {
		return ocr.StateTerminated
	}
	return l.engine.State()
}

// NativeAvailable reports whether the platform QR detector is present.
func (l *Lifecycle) NativeAvailable() bool { return l.native.Available() }

func (l *Lifecycle) report(r decode.Result) {
	if l.callbacks.OnSerialFound != nil {
		l.callbacks.OnSerialFound(r.Serial)
	}
}

func (l *Lifecycle) reportError(err error) {
	if l.callbacks.OnError == nil {
		return
	}
	var ue *capture.UnavailableError
	if errors.As(err, &ue) && ue.Cause != nil {
		l.callbacks.OnError(fmt.Sprintf("Camera access failed: %v", ue.Cause))
		return
	}
	l.callbacks.OnError(fmt.Sprintf("Camera access failed: %v", err))
}
